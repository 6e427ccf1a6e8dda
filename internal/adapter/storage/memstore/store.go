package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
)

// Store is an in-memory, single-node emulation of the hosted document
// backend. It keeps an explicit tree of maps: collections own documents,
// documents own a record plus named subcollections. Documents never hold a
// back-reference to their parent.
//
// State lives only for the lifetime of the process.
type Store struct {
	mu       sync.Mutex
	cols     map[string]*collection
	notifier *notifier
}

type collection struct {
	docs map[string]*document
}

type document struct {
	rec  storage.Record // nil until a record is written
	subs map[string]*collection
}

func New() *Store {
	s := &Store{
		cols: make(map[string]*collection),
	}
	s.notifier = newNotifier()
	return s
}

func (s *Store) Close() error {
	s.notifier.close()
	return nil
}

func (s *Store) SetDocument(ctx context.Context, col, id string, rec storage.Record, merge bool) error {
	if id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	s.mu.Lock()
	s.setLocked(s.getCollection(col), id, rec, merge)
	s.mu.Unlock()

	s.notifier.documentChanged(docPath(col, id))
	return nil
}

func (s *Store) GetDocument(ctx context.Context, col, id string) (storage.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.getCollection(col).docs[id]
	if !ok || doc.rec == nil {
		return nil, false, nil
	}
	return copyRecord(doc.rec), true, nil
}

func (s *Store) UpdateDocument(ctx context.Context, col, id string, partial storage.Record) error {
	if id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	s.mu.Lock()
	s.updateLocked(s.getCollection(col), id, partial)
	s.mu.Unlock()

	s.notifier.documentChanged(docPath(col, id))
	return nil
}

// DeleteDocument removes the document and every subcollection under it.
// Deleting an absent id is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, col, id string) error {
	s.mu.Lock()
	c := s.getCollection(col)
	doc, existed := c.docs[id]
	var subNames []string
	if existed {
		for name := range doc.subs {
			subNames = append(subNames, name)
		}
		delete(c.docs, id)
	}
	s.mu.Unlock()

	if existed {
		s.notifier.documentChanged(docPath(col, id))
		for _, sub := range subNames {
			s.notifySubcollection(col, id, sub)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, col string, q storage.Query) ([]storage.Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return runQuery(s.getCollection(col), q), nil
}

func (s *Store) AddToSubcollection(ctx context.Context, col, docID, sub string, rec storage.Record) (string, error) {
	id := uuid.New().String()
	if err := s.SetInSubcollection(ctx, col, docID, sub, id, rec, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetInSubcollection(ctx context.Context, col, docID, sub, id string, rec storage.Record, merge bool) error {
	if docID == "" || id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	s.mu.Lock()
	s.setLocked(s.getSubcollection(col, docID, sub), id, rec, merge)
	s.mu.Unlock()

	s.notifySubcollection(col, docID, sub)
	return nil
}

func (s *Store) GetFromSubcollection(ctx context.Context, col, docID, sub, id string) (storage.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.getSubcollection(col, docID, sub).docs[id]
	if !ok || doc.rec == nil {
		return nil, false, nil
	}
	return copyRecord(doc.rec), true, nil
}

func (s *Store) UpdateInSubcollection(ctx context.Context, col, docID, sub, id string, partial storage.Record) error {
	if docID == "" || id == "" {
		return errors.BadRequest("document id is required", nil)
	}
	s.mu.Lock()
	s.updateLocked(s.getSubcollection(col, docID, sub), id, partial)
	s.mu.Unlock()

	s.notifySubcollection(col, docID, sub)
	return nil
}

func (s *Store) QuerySubcollection(ctx context.Context, col, docID, sub string, q storage.Query) ([]storage.Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return runQuery(s.getSubcollection(col, docID, sub), q), nil
}

func (s *Store) SubscribeToSubcollection(col, docID, sub, orderField string, fn storage.SnapshotFunc) (storage.Subscription, error) {
	path := subPath(col, docID, sub)
	return s.notifier.subscribeSnapshot(path, s.subSnapshotter(col, docID, sub, orderField), fn), nil
}

func (s *Store) SubscribeToDocument(col, id string, fn storage.DocumentFunc) (storage.Subscription, error) {
	return s.notifier.subscribeDocument(docPath(col, id), s.docSnapshotter(col, id), fn), nil
}

// getCollection lazily creates collections; first reference is enough.
func (s *Store) getCollection(name string) *collection {
	c, ok := s.cols[name]
	if !ok {
		c = &collection{docs: make(map[string]*document)}
		s.cols[name] = c
	}
	return c
}

// getSubcollection creates the parent document shell when absent; a
// subcollection may exist under a document that never received a record.
func (s *Store) getSubcollection(col, docID, sub string) *collection {
	parent := s.getCollection(col)
	doc, ok := parent.docs[docID]
	if !ok {
		doc = &document{subs: make(map[string]*collection)}
		parent.docs[docID] = doc
	}
	c, ok := doc.subs[sub]
	if !ok {
		c = &collection{docs: make(map[string]*document)}
		doc.subs[sub] = c
	}
	return c
}

func (s *Store) setLocked(c *collection, id string, rec storage.Record, merge bool) {
	doc, ok := c.docs[id]
	if !ok {
		doc = &document{subs: make(map[string]*collection)}
		c.docs[id] = doc
	}
	incoming := copyRecord(rec)
	if merge && doc.rec != nil {
		merged := copyRecord(doc.rec)
		for k, v := range incoming {
			merged[k] = v
		}
		doc.rec = merged
		return
	}
	doc.rec = incoming
}

// updateLocked merges onto a possibly-absent base. Keys containing dots
// address nested record fields ("socialLinks.twitter") and replace only the
// addressed leaf, leaving sibling keys untouched.
func (s *Store) updateLocked(c *collection, id string, partial storage.Record) {
	doc, ok := c.docs[id]
	if !ok {
		doc = &document{subs: make(map[string]*collection)}
		c.docs[id] = doc
	}
	base := storage.Record{}
	if doc.rec != nil {
		base = copyRecord(doc.rec)
	}
	for k, v := range partial {
		if strings.Contains(k, ".") {
			setNested(base, strings.Split(k, "."), v)
			continue
		}
		base[k] = copyValue(v)
	}
	doc.rec = base
}

func setNested(rec storage.Record, path []string, v interface{}) {
	if len(path) == 1 {
		rec[path[0]] = copyValue(v)
		return
	}
	child, ok := rec[path[0]].(map[string]interface{})
	if !ok {
		child = make(map[string]interface{})
		rec[path[0]] = child
	}
	setNested(child, path[1:], v)
}

func (s *Store) notifySubcollection(col, docID, sub string) {
	s.notifier.snapshotChanged(subPath(col, docID, sub))
}

// subSnapshotter re-reads the full ordered subcollection at delivery time;
// snapshot listeners always see a state no older than the mutation that
// triggered them.
func (s *Store) subSnapshotter(col, docID, sub, orderField string) func() []storage.Document {
	return func() []storage.Document {
		s.mu.Lock()
		defer s.mu.Unlock()
		return runQuery(s.getSubcollection(col, docID, sub), storage.Query{
			OrderBy: &storage.Order{Field: orderField, Direction: storage.Asc},
		})
	}
}

func (s *Store) docSnapshotter(col, id string) func() (storage.Record, bool) {
	return func() (storage.Record, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		doc, ok := s.getCollection(col).docs[id]
		if !ok || doc.rec == nil {
			return nil, false
		}
		return copyRecord(doc.rec), true
	}
}

func docPath(col, id string) string {
	return col + "/" + id
}

func subPath(col, docID, sub string) string {
	return col + "/" + docID + "/" + sub
}
