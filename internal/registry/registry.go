// Package registry maintains a live, deduplicated in-memory mirror of one
// document-store collection. A registry subscribes to the store, decodes
// incoming change batches, merges them into an ID-keyed map, and republishes
// an ordered snapshot to observers. It is eventually consistent: observers
// see a monotonically improving view and coalesced updates are acceptable.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"agency-data-service/internal/docstore"
	"agency-data-service/internal/errqueue"
	"agency-data-service/internal/logging"
	"agency-data-service/internal/metrics"
)

// Entity is anything mirrored by a registry, keyed by its document ID.
type Entity interface {
	Key() string
}

// Options wires a registry to its collaborators.
type Options[T Entity] struct {
	Store   docstore.Store
	Spec    docstore.QuerySpec
	Decode  func(docstore.Document) (T, error)
	Errors  *errqueue.Queue
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Registry mirrors one collection. Mutations happen only through the
// subscription loop and LoadMore's merge; everything else reads copies.
type Registry[T Entity] struct {
	store   docstore.Store
	spec    docstore.QuerySpec
	decode  func(docstore.Document) (T, error)
	errs    *errqueue.Queue
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu       sync.RWMutex
	entities map[string]T
	order    map[string]any
	version  uint64
	status   Status

	updates   chan struct{}
	sub       docstore.Subscription
	loopDone  chan struct{}
	closeOnce sync.Once
}

// Open subscribes to the collection and starts the merge loop. The caller
// owns the registry's lifetime and must call Close; an unreleased registry
// leaks a live listener.
func Open[T Entity](ctx context.Context, opts Options[T]) (*Registry[T], error) {
	sub, err := opts.Store.Subscribe(ctx, opts.Spec)
	if err != nil {
		return nil, err
	}

	r := &Registry[T]{
		store:    opts.Store,
		spec:     opts.Spec,
		decode:   opts.Decode,
		errs:     opts.Errors,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		entities: make(map[string]T),
		order:    make(map[string]any),
		updates:  make(chan struct{}, 1),
		sub:      sub,
		loopDone: make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// Close cancels the subscription and waits for the merge loop to exit.
// Idempotent; after Close the last published snapshot remains readable.
func (r *Registry[T]) Close() {
	r.closeOnce.Do(func() {
		r.sub.Cancel()
		<-r.loopDone
	})
}

// List returns the current snapshot ordered by the subscription's sort key,
// entities missing the key last, document ID as the tie-break. The returned
// slice is a copy.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		cmp := docstore.CompareValues(r.order[ids[i]], r.order[ids[j]])
		if r.spec.Descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return ids[i] < ids[j]
	})

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.entities[id])
	}
	return out
}

// Get returns one entity by ID.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

// Len reports the number of mirrored entities.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Version increments on every merge; derived views memoize against it.
func (r *Registry[T]) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Updates signals (coalesced) that the snapshot changed.
func (r *Registry[T]) Updates() <-chan struct{} {
	return r.updates
}

// Status returns a snapshot of the registry's recent health.
func (r *Registry[T]) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// LoadMore fetches one page ordered after the last entity currently held
// and merges it additively. It is independent from the live subscription
// and safe to call concurrently with it.
func (r *Registry[T]) LoadMore(ctx context.Context, limit int) (int, error) {
	spec := r.spec
	spec.Limit = limit
	spec.StartAfter = r.lastCursor()

	page, err := r.store.Query(ctx, spec)
	if err != nil {
		if r.errs != nil {
			r.errs.Push(err)
		}
		return 0, err
	}

	batch := make([]docstore.Change, 0, len(page.Documents))
	for _, doc := range page.Documents {
		batch = append(batch, docstore.Change{Kind: docstore.ChangeAdded, Doc: doc})
	}
	r.applyBatch(batch)
	return len(page.Documents), nil
}

// lastCursor finds the entity that sorts last in the current snapshot and
// returns its (order value, ID) position. The ID keeps paging exact when
// several entities share the order value. Nil on an empty registry, which
// makes LoadMore start from the first page.
func (r *Registry[T]) lastCursor() *docstore.Cursor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *docstore.Cursor
	for id, v := range r.order {
		if last == nil {
			last = &docstore.Cursor{Value: v, ID: id}
			continue
		}
		cmp := docstore.CompareValues(v, last.Value)
		if r.spec.Descending {
			cmp = -cmp
		}
		if cmp > 0 || (cmp == 0 && id > last.ID) {
			last = &docstore.Cursor{Value: v, ID: id}
		}
	}
	return last
}

func (r *Registry[T]) run() {
	defer close(r.loopDone)

	for {
		select {
		case batch, ok := <-r.sub.Changes():
			if !ok {
				return
			}
			r.applyBatch(batch)
		case err, ok := <-r.sub.Errors():
			if !ok {
				return
			}
			r.reportError(err)
		}
	}
}

// applyBatch merges one change batch. Within a batch the last change per ID
// wins, so duplicate-ID collisions resolve deterministically by batch order
// rather than map iteration order.
func (r *Registry[T]) applyBatch(batch []docstore.Change) {
	decodeFailures := 0

	r.mu.Lock()
	for _, change := range batch {
		switch change.Kind {
		case docstore.ChangeRemoved:
			delete(r.entities, change.Doc.ID)
			delete(r.order, change.Doc.ID)
		default:
			entity, err := r.decode(change.Doc)
			if err != nil {
				// A malformed document only loses itself; the batch
				// and any previous good version of it survive.
				decodeFailures++
				logging.Warn(r.logger, "skipping undecodable document",
					slog.String(logging.FieldCollection, r.spec.Collection),
					slog.String(logging.FieldDocumentID, change.Doc.ID),
					slog.String("reason", err.Error()),
				)
				continue
			}
			r.entities[entity.Key()] = entity
			r.order[entity.Key()] = change.Doc.Fields[r.spec.OrderBy]
		}
	}
	r.version++
	r.status.Ready = true
	r.status.Events += len(batch)
	r.status.DecodeFailures += decodeFailures
	r.status.LastEventAt = time.Now()
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordRegistryEvents(r.spec.Collection, len(batch), decodeFailures)
	}

	select {
	case r.updates <- struct{}{}:
	default:
	}
}

// reportError queues a subscription error for the user without touching
// the last good snapshot.
func (r *Registry[T]) reportError(err error) {
	r.mu.Lock()
	r.status.LastError = err.Error()
	r.mu.Unlock()

	logging.Error(r.logger, "subscription error", err,
		slog.String(logging.FieldCollection, r.spec.Collection))
	if r.errs != nil {
		r.errs.Push(err)
	}
}
