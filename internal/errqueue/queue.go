// Package errqueue implements the user-visible error surface: one current
// error plus a FIFO backlog. Acknowledging the current error reveals the
// next queued one, so multiple failures surface one at a time instead of
// clobbering each other.
package errqueue

import "sync"

// Queue is a thread-safe single-slot error queue with a backlog.
type Queue struct {
	mu      sync.Mutex
	current error
	backlog []error
}

// New constructs an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Push queues an error. Nil errors are ignored.
func (q *Queue) Push(err error) {
	if err == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil {
		q.current = err
		return
	}
	q.backlog = append(q.backlog, err)
}

// Current returns the error awaiting acknowledgement, if any.
func (q *Queue) Current() (error, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return nil, false
	}
	return q.current, true
}

// Ack discards the current error and promotes the oldest backlog entry.
// Acking an empty queue is a no-op.
func (q *Queue) Ack() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.backlog) == 0 {
		q.current = nil
		return
	}
	q.current = q.backlog[0]
	q.backlog = q.backlog[1:]
}

// Len reports the number of queued errors including the current one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return 0
	}
	return 1 + len(q.backlog)
}
