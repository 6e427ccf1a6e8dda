package fsstore

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
	"vexachat/pkg/logger"
)

// Store implements the document-store surface over a hosted Firestore
// project. Session and conversation layers see the same behavior as the
// in-memory emulation.
type Store struct {
	client *firestore.Client

	mu   sync.Mutex
	subs map[string]*watch
}

func New(client *firestore.Client) *Store {
	return &Store{
		client: client,
		subs:   make(map[string]*watch),
	}
}

func (s *Store) Close() error {
	s.mu.Lock()
	for _, w := range s.subs {
		w.stop()
	}
	s.subs = make(map[string]*watch)
	s.mu.Unlock()
	return s.client.Close()
}

func (s *Store) SetDocument(ctx context.Context, col, id string, rec storage.Record, merge bool) error {
	if id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	return s.set(ctx, s.client.Collection(col).Doc(id), rec, merge)
}

func (s *Store) GetDocument(ctx context.Context, col, id string) (storage.Record, bool, error) {
	return s.get(ctx, s.client.Collection(col).Doc(id))
}

func (s *Store) UpdateDocument(ctx context.Context, col, id string, partial storage.Record) error {
	if id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	return s.update(ctx, s.client.Collection(col).Doc(id), partial)
}

func (s *Store) DeleteDocument(ctx context.Context, col, id string) error {
	_, err := s.client.Collection(col).Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete document", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, col string, q storage.Query) ([]storage.Document, error) {
	return s.runQuery(ctx, s.client.Collection(col).Query, q)
}

func (s *Store) AddToSubcollection(ctx context.Context, col, docID, sub string, rec storage.Record) (string, error) {
	ref, _, err := s.client.Collection(col).Doc(docID).Collection(sub).Add(ctx, map[string]interface{}(rec))
	if err != nil {
		return "", errors.Internal("Failed to add document", err)
	}
	return ref.ID, nil
}

func (s *Store) SetInSubcollection(ctx context.Context, col, docID, sub, id string, rec storage.Record, merge bool) error {
	if docID == "" || id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	return s.set(ctx, s.client.Collection(col).Doc(docID).Collection(sub).Doc(id), rec, merge)
}

func (s *Store) GetFromSubcollection(ctx context.Context, col, docID, sub, id string) (storage.Record, bool, error) {
	return s.get(ctx, s.client.Collection(col).Doc(docID).Collection(sub).Doc(id))
}

func (s *Store) UpdateInSubcollection(ctx context.Context, col, docID, sub, id string, partial storage.Record) error {
	if docID == "" || id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	return s.update(ctx, s.client.Collection(col).Doc(docID).Collection(sub).Doc(id), partial)
}

func (s *Store) QuerySubcollection(ctx context.Context, col, docID, sub string, q storage.Query) ([]storage.Document, error) {
	return s.runQuery(ctx, s.client.Collection(col).Doc(docID).Collection(sub).Query, q)
}

func (s *Store) set(ctx context.Context, ref *firestore.DocumentRef, rec storage.Record, merge bool) error {
	var opts []firestore.SetOption
	if merge {
		opts = append(opts, firestore.MergeAll)
	}
	if _, err := ref.Set(ctx, map[string]interface{}(rec), opts...); err != nil {
		return errors.Internal("Failed to write document", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, ref *firestore.DocumentRef) (storage.Record, bool, error) {
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, errors.Internal("Failed to get document", err)
	}
	return storage.Record(doc.Data()), true, nil
}

// update keeps the emulation's merge-onto-absent-base semantics: Firestore
// rejects Update on a missing document, so that case falls back to a merge
// write with dotted keys expanded into nested maps.
func (s *Store) update(ctx context.Context, ref *firestore.DocumentRef, partial storage.Record) error {
	updates := make([]firestore.Update, 0, len(partial))
	for k, v := range partial {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err := ref.Update(ctx, updates)
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return errors.Internal("Failed to update document", err)
	}
	if _, err := ref.Set(ctx, expandDots(partial), firestore.MergeAll); err != nil {
		return errors.Internal("Failed to update document", err)
	}
	return nil
}

func expandDots(partial storage.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(partial))
	for k, v := range partial {
		parts := strings.Split(k, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = v
	}
	return out
}

func (s *Store) runQuery(ctx context.Context, query firestore.Query, q storage.Query) ([]storage.Document, error) {
	for _, f := range q.Filters {
		switch f.Op {
		case storage.OpEqual, storage.OpArrayContains:
			query = query.Where(f.Field, string(f.Op), f.Value)
		default:
			return nil, errors.BadRequest("unsupported filter operator", nil)
		}
	}
	if q.OrderBy != nil {
		dir := firestore.Asc
		if q.OrderBy.Direction == storage.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy.Field, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []storage.Document
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate documents", err)
		}
		out = append(out, storage.Document{ID: doc.Ref.ID, Data: storage.Record(doc.Data())})
	}
	return out, nil
}

// watch is one active server-side snapshot stream. The same
// at-most-one-listener-per-path rule as the emulation applies.
type watch struct {
	cancel context.CancelFunc
}

func (w *watch) stop() {
	w.cancel()
}

func (s *Store) SubscribeToSubcollection(col, docID, sub, orderField string, fn storage.SnapshotFunc) (storage.Subscription, error) {
	path := col + "/" + docID + "/" + sub
	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{cancel: cancel}
	s.register(path, w)

	query := s.client.Collection(col).Doc(docID).Collection(sub).OrderBy(orderField, firestore.Asc)
	go func() {
		snaps := query.Snapshots(ctx)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Warn("Snapshot stream for %s ended: %v", path, err)
				}
				return
			}
			var docs []storage.Document
			iter := snap.Documents
			for {
				doc, err := iter.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					logger.Warn("Snapshot read for %s failed: %v", path, err)
					return
				}
				docs = append(docs, storage.Document{ID: doc.Ref.ID, Data: storage.Record(doc.Data())})
			}
			fn(docs)
		}
	}()

	return &subscription{store: s, path: path, watch: w}, nil
}

func (s *Store) SubscribeToDocument(col, id string, fn storage.DocumentFunc) (storage.Subscription, error) {
	path := col + "/" + id
	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{cancel: cancel}
	s.register(path, w)

	go func() {
		snaps := s.client.Collection(col).Doc(id).Snapshots(ctx)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					logger.Warn("Document stream for %s ended: %v", path, err)
				}
				return
			}
			if !snap.Exists() {
				fn(nil, false)
				continue
			}
			fn(storage.Record(snap.Data()), true)
		}
	}()

	return &subscription{store: s, path: path, watch: w}, nil
}

func (s *Store) register(path string, w *watch) {
	s.mu.Lock()
	if prior, ok := s.subs[path]; ok {
		prior.stop()
	}
	s.subs[path] = w
	s.mu.Unlock()
}

type subscription struct {
	store *Store
	path  string
	watch *watch
}

func (s *subscription) Cancel() {
	s.watch.stop()
	s.store.mu.Lock()
	if s.store.subs[s.path] == s.watch {
		delete(s.store.subs, s.path)
	}
	s.store.mu.Unlock()
}
