package postgres

import (
	"context"
	"sync"
	"time"

	"agency-data-service/internal/docstore"
)

// pollSub emulates a live subscription by re-querying on an interval and
// diffing against the last observed state.
type pollSub struct {
	store *Store
	spec  docstore.QuerySpec

	changes  chan []docstore.Change
	errs     chan error
	done     chan struct{}
	stopOnce sync.Once
}

func newPollSub(store *Store, spec docstore.QuerySpec) *pollSub {
	return &pollSub{
		store:   store,
		spec:    spec,
		changes: make(chan []docstore.Change, 16),
		errs:    make(chan error, 8),
		done:    make(chan struct{}),
	}
}

func (s *pollSub) Changes() <-chan []docstore.Change { return s.changes }
func (s *pollSub) Errors() <-chan error              { return s.errs }

// Cancel stops the poll loop. Idempotent; channels close once the loop exits.
func (s *pollSub) Cancel() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *pollSub) run() {
	defer close(s.changes)
	defer close(s.errs)

	last, ok := s.initialSnapshot()
	if !ok {
		return
	}

	ticker := time.NewTicker(s.store.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			curr, err := s.fetchMatching()
			if err != nil {
				s.reportError(err)
				continue
			}
			batch := docstore.Diff(last, curr)
			if len(batch) == 0 {
				continue
			}
			if !s.deliver(batch) {
				return
			}
			last = curr
		}
	}
}

// initialSnapshot retries until the first full fetch succeeds or the
// subscription is cancelled, then delivers it as one Added batch.
func (s *pollSub) initialSnapshot() (map[string]docstore.Document, bool) {
	for {
		curr, err := s.fetchMatching()
		if err == nil {
			batch := make([]docstore.Change, 0, len(curr))
			page := docstore.PageOf(docsOf(curr), s.spec)
			for _, doc := range page.Documents {
				batch = append(batch, docstore.Change{Kind: docstore.ChangeAdded, Doc: doc})
			}
			if !s.deliver(batch) {
				return nil, false
			}
			return curr, true
		}

		s.reportError(err)
		select {
		case <-s.done:
			return nil, false
		case <-time.After(s.store.pollInterval):
		}
	}
}

func (s *pollSub) fetchMatching() (map[string]docstore.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.store.pollInterval)
	defer cancel()

	docs, err := s.store.fetchCollection(ctx, s.spec.Collection)
	if err != nil {
		return nil, err
	}

	matching := docstore.PageOf(docs, docstore.QuerySpec{
		Collection: s.spec.Collection,
		OrderBy:    s.spec.OrderBy,
		Descending: s.spec.Descending,
		Filters:    s.spec.Filters,
	})

	out := make(map[string]docstore.Document, len(matching.Documents))
	for _, doc := range matching.Documents {
		out[doc.ID] = doc
	}
	return out, nil
}

func (s *pollSub) deliver(batch []docstore.Change) bool {
	select {
	case s.changes <- batch:
		return true
	case <-s.done:
		return false
	}
}

// reportError queues the error without blocking; when the queue is full the
// oldest unread error is simply superseded by silence, not by a crash.
func (s *pollSub) reportError(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func docsOf(m map[string]docstore.Document) []docstore.Document {
	out := make([]docstore.Document, 0, len(m))
	for _, doc := range m {
		out = append(out, doc)
	}
	return out
}
