package storage

import (
	"context"
	"time"
)

// Record is the field set of a single document. Values are scalars, string
// slices, time.Time, or nested map[string]interface{} records.
type Record map[string]interface{}

// Document pairs a record with its id inside a collection.
type Document struct {
	ID   string
	Data Record
}

type Operator string

const (
	OpEqual         Operator = "=="
	OpArrayContains Operator = "array-contains"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

type Order struct {
	Field     string
	Direction Direction
}

// Query describes a filtered, optionally ordered and limited read over a
// collection. Filters are conjunctive.
type Query struct {
	Filters []Filter
	OrderBy *Order
	Limit   int
}

// SnapshotFunc receives the full ordered result set matching a subscribed
// path, not a delta. It is invoked once per relevant mutation.
type SnapshotFunc func(docs []Document)

// DocumentFunc receives the current record of a subscribed document, with
// exists=false after deletion.
type DocumentFunc func(rec Record, exists bool)

// Subscription is a handle to an active listener. Cancel is idempotent and
// best-effort: one delivery already in flight may still fire after it returns.
type Subscription interface {
	Cancel()
}

// Store is the document-store surface shared by the in-memory emulation and
// the hosted Firestore backend. Session and conversation layers depend only
// on this interface so either backend can be plugged in unchanged.
//
// Reads never fail on absence; they report it through the exists flag.
// Structurally invalid calls (empty document id on a write, unknown filter
// operator) fail with a BAD_REQUEST application error.
type Store interface {
	SetDocument(ctx context.Context, col, id string, rec Record, merge bool) error
	GetDocument(ctx context.Context, col, id string) (Record, bool, error)
	UpdateDocument(ctx context.Context, col, id string, partial Record) error
	DeleteDocument(ctx context.Context, col, id string) error
	Query(ctx context.Context, col string, q Query) ([]Document, error)

	AddToSubcollection(ctx context.Context, col, docID, sub string, rec Record) (string, error)
	SetInSubcollection(ctx context.Context, col, docID, sub, id string, rec Record, merge bool) error
	GetFromSubcollection(ctx context.Context, col, docID, sub, id string) (Record, bool, error)
	UpdateInSubcollection(ctx context.Context, col, docID, sub, id string, partial Record) error
	QuerySubcollection(ctx context.Context, col, docID, sub string, q Query) ([]Document, error)

	// SubscribeToSubcollection delivers snapshots of the subcollection ordered
	// ascending by the given timestamp-like field. Registering a second
	// listener on the same path cancels the first.
	SubscribeToSubcollection(col, docID, sub, orderField string, fn SnapshotFunc) (Subscription, error)
	SubscribeToDocument(col, id string, fn DocumentFunc) (Subscription, error)

	Close() error
}

// Typed accessors below tolerate the loose value shapes that come back from
// either backend (e.g. []interface{} vs []string for arrays).

func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r Record) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

func (r Record) Time(key string) time.Time {
	if v, ok := r[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (r Record) Map(key string) map[string]interface{} {
	switch v := r[key].(type) {
	case map[string]interface{}:
		return v
	case Record:
		return v
	}
	return nil
}
