package memstore

import (
	"sync"
	"sync/atomic"

	"vexachat/internal/domain/storage"
)

// notifier fans mutations out to snapshot listeners. Deliveries run on a
// single dispatcher goroutine, so callbacks for one path fire in the same
// order the triggering writes were issued, and the mutating caller never
// blocks on listener code.
type notifier struct {
	mu           sync.Mutex
	snapshots    map[string]*snapshotSub
	documents    map[string]*documentSub
	queue        []func()
	queueCond    *sync.Cond
	closed       bool
	dispatchDone chan struct{}
}

func newNotifier() *notifier {
	n := &notifier{
		snapshots:    make(map[string]*snapshotSub),
		documents:    make(map[string]*documentSub),
		dispatchDone: make(chan struct{}),
	}
	n.queueCond = sync.NewCond(&n.mu)
	go n.dispatch()
	return n
}

type snapshotSub struct {
	n         *notifier
	path      string
	read      func() []storage.Document
	fn        storage.SnapshotFunc
	cancelled atomic.Bool
}

type documentSub struct {
	n         *notifier
	path      string
	read      func() (storage.Record, bool)
	fn        storage.DocumentFunc
	cancelled atomic.Bool
}

// subscribeSnapshot registers a listener for a subcollection path and
// schedules the initial delivery. At most one listener is active per path;
// a prior listener on the same path is cancelled.
func (n *notifier) subscribeSnapshot(path string, read func() []storage.Document, fn storage.SnapshotFunc) *snapshotSub {
	sub := &snapshotSub{n: n, path: path, read: read, fn: fn}
	n.mu.Lock()
	if prior, ok := n.snapshots[path]; ok {
		prior.cancelled.Store(true)
	}
	n.snapshots[path] = sub
	n.enqueueLocked(sub.deliver)
	n.mu.Unlock()
	return sub
}

func (n *notifier) subscribeDocument(path string, read func() (storage.Record, bool), fn storage.DocumentFunc) *documentSub {
	sub := &documentSub{n: n, path: path, read: read, fn: fn}
	n.mu.Lock()
	if prior, ok := n.documents[path]; ok {
		prior.cancelled.Store(true)
	}
	n.documents[path] = sub
	n.enqueueLocked(sub.deliver)
	n.mu.Unlock()
	return sub
}

func (n *notifier) snapshotChanged(path string) {
	n.mu.Lock()
	if sub, ok := n.snapshots[path]; ok {
		n.enqueueLocked(sub.deliver)
	}
	n.mu.Unlock()
}

func (n *notifier) documentChanged(path string) {
	n.mu.Lock()
	if sub, ok := n.documents[path]; ok {
		n.enqueueLocked(sub.deliver)
	}
	n.mu.Unlock()
}

func (n *notifier) enqueueLocked(job func()) {
	if n.closed {
		return
	}
	n.queue = append(n.queue, job)
	n.queueCond.Signal()
}

func (n *notifier) dispatch() {
	defer close(n.dispatchDone)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.queueCond.Wait()
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		job := n.queue[0]
		n.queue = n.queue[1:]
		n.mu.Unlock()

		job()
	}
}

// close drains already-scheduled deliveries before the dispatcher exits.
func (n *notifier) close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.queueCond.Broadcast()
	n.mu.Unlock()
	<-n.dispatchDone
}

// deliver re-reads the current snapshot at dispatch time. Cancellation is
// best-effort: a delivery dequeued before cancel may still invoke the
// callback once.
func (s *snapshotSub) deliver() {
	if s.cancelled.Load() {
		return
	}
	s.fn(s.read())
}

func (s *snapshotSub) Cancel() {
	s.cancelled.Store(true)
	s.n.mu.Lock()
	if s.n.snapshots[s.path] == s {
		delete(s.n.snapshots, s.path)
	}
	s.n.mu.Unlock()
}

func (s *documentSub) deliver() {
	if s.cancelled.Load() {
		return
	}
	rec, exists := s.read()
	s.fn(rec, exists)
}

func (s *documentSub) Cancel() {
	s.cancelled.Store(true)
	s.n.mu.Lock()
	if s.n.documents[s.path] == s {
		delete(s.n.documents, s.path)
	}
	s.n.mu.Unlock()
}
