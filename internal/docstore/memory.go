package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe, in-process Store. It backs tests and the
// default configuration, and fans out change events to live subscriptions.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	subs        map[int]*memorySub
	nextSubID   int
	newID       func() string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		subs:        make(map[int]*memorySub),
		newID:       uuid.NewString,
	}
}

// Query returns an ordered page of matching documents.
func (s *MemoryStore) Query(ctx context.Context, spec QuerySpec) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, &StoreError{Op: "query", Collection: spec.Collection, Err: err}
	}

	s.mu.RLock()
	docs := s.allLocked(spec.Collection)
	s.mu.RUnlock()

	return PageOf(docs, spec), nil
}

// Subscribe registers a live listener. The initial snapshot is delivered as
// one batch of Added changes before any incremental batch.
func (s *MemoryStore) Subscribe(ctx context.Context, spec QuerySpec) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "subscribe", Collection: spec.Collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	sub := newMemorySub(spec, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	})
	s.subs[id] = sub

	snapshot := s.matchingLocked(spec)
	SortDocs(snapshot, spec)
	initial := make([]Change, 0, len(snapshot))
	for _, doc := range snapshot {
		sub.seen[doc.ID] = struct{}{}
		initial = append(initial, Change{Kind: ChangeAdded, Doc: doc})
	}
	sub.enqueue(initial)

	return sub, nil
}

// Create stores a new document and returns its assigned ID.
func (s *MemoryStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StoreError{Op: "create", Collection: collection, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	doc := Document{ID: id, Fields: copyFields(fields)}
	s.ensureCollectionLocked(collection)[id] = doc
	s.fanOutLocked(collection, doc, false)
	return id, nil
}

// Update overwrites or merges the document's fields, upserting when absent.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "update", Collection: collection, Err: err}
	}
	if id == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyUpdateLocked(collection, Update{ID: id, Fields: fields, Merge: merge})
	return nil
}

// Delete removes a document. Deleting an unknown ID succeeds silently.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "delete", Collection: collection, Err: err}
	}
	if id == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, exists := docs[id]; !exists {
		return nil
	}
	delete(docs, id)
	s.fanOutLocked(collection, Document{ID: id}, true)
	return nil
}

// BatchUpdate applies all entries under one lock hold: all or nothing.
func (s *MemoryStore) BatchUpdate(ctx context.Context, collection string, updates []Update) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "batch", Collection: collection, Err: err}
	}
	for _, u := range updates {
		if u.ID == "" {
			return ErrMissingID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		s.applyUpdateLocked(collection, u)
	}
	return nil
}

// Len reports the number of documents in a collection (test helper).
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *MemoryStore) applyUpdateLocked(collection string, u Update) {
	docs := s.ensureCollectionLocked(collection)

	var fields map[string]any
	if existing, ok := docs[u.ID]; ok && u.Merge {
		fields = copyFields(existing.Fields)
		for k, v := range u.Fields {
			fields[k] = copyValue(v)
		}
	} else {
		fields = copyFields(u.Fields)
	}

	doc := Document{ID: u.ID, Fields: fields}
	docs[u.ID] = doc
	s.fanOutLocked(collection, doc, false)
}

func (s *MemoryStore) ensureCollectionLocked(collection string) map[string]Document {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]Document)
		s.collections[collection] = docs
	}
	return docs
}

// allLocked copies every document out of a collection.
func (s *MemoryStore) allLocked(collection string) []Document {
	out := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		out = append(out, Document{ID: doc.ID, Fields: copyFields(doc.Fields)})
	}
	return out
}

// matchingLocked copies matching documents out of a collection.
func (s *MemoryStore) matchingLocked(spec QuerySpec) []Document {
	out := make([]Document, 0)
	for _, doc := range s.collections[spec.Collection] {
		if matches(doc, spec.Filters) {
			out = append(out, Document{ID: doc.ID, Fields: copyFields(doc.Fields)})
		}
	}
	return out
}

// fanOutLocked routes one mutation to every subscription on the collection,
// translating it per subscription into added/modified/removed relative to
// what that subscriber has seen.
func (s *MemoryStore) fanOutLocked(collection string, doc Document, deleted bool) {
	for _, sub := range s.subs {
		if sub.spec.Collection != collection {
			continue
		}

		_, wasSeen := sub.seen[doc.ID]
		nowMatches := !deleted && matches(doc, sub.spec.Filters)

		switch {
		case nowMatches && !wasSeen:
			sub.seen[doc.ID] = struct{}{}
			sub.enqueue([]Change{{Kind: ChangeAdded, Doc: Document{ID: doc.ID, Fields: copyFields(doc.Fields)}}})
		case nowMatches && wasSeen:
			sub.enqueue([]Change{{Kind: ChangeModified, Doc: Document{ID: doc.ID, Fields: copyFields(doc.Fields)}}})
		case !nowMatches && wasSeen:
			delete(sub.seen, doc.ID)
			sub.enqueue([]Change{{Kind: ChangeRemoved, Doc: Document{ID: doc.ID}}})
		}
	}
}

// memorySub buffers pending changes and drains them from a dedicated
// goroutine, so slow consumers coalesce batches instead of blocking writers.
type memorySub struct {
	spec   QuerySpec
	seen   map[string]struct{}
	detach func()

	mu      sync.Mutex
	pending []Change

	notify  chan struct{}
	changes chan []Change
	errs    chan error
	done    chan struct{}
	once    sync.Once
}

func newMemorySub(spec QuerySpec, detach func()) *memorySub {
	sub := &memorySub{
		spec:    spec,
		seen:    make(map[string]struct{}),
		detach:  detach,
		notify:  make(chan struct{}, 1),
		changes: make(chan []Change),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go sub.run()
	return sub
}

func (s *memorySub) Changes() <-chan []Change { return s.changes }
func (s *memorySub) Errors() <-chan error     { return s.errs }

// Cancel detaches the subscription and closes its channels. Idempotent.
func (s *memorySub) Cancel() {
	s.once.Do(func() {
		s.detach()
		close(s.done)
	})
}

func (s *memorySub) enqueue(batch []Change) {
	if len(batch) == 0 {
		// An empty initial snapshot still counts as a delivery so the
		// registry can publish its empty list.
		batch = []Change{}
	}
	s.mu.Lock()
	if s.pending == nil {
		s.pending = make([]Change, 0, len(batch))
	}
	s.pending = append(s.pending, batch...)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *memorySub) run() {
	defer close(s.changes)
	defer close(s.errs)

	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
			s.mu.Lock()
			batch := s.pending
			s.pending = nil
			s.mu.Unlock()
			if batch == nil {
				continue
			}
			select {
			case s.changes <- batch:
			case <-s.done:
				return
			}
		}
	}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case map[string]any:
		return copyFields(val)
	default:
		return v
	}
}
