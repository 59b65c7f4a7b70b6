package docstore

import (
	"errors"
	"fmt"
)

// ErrMissingID reports a write that requires a persisted document ID.
// It is a precondition failure surfaced synchronously to the caller,
// never queued as a user-visible store error.
var ErrMissingID = errors.New("docstore: document id required")

// StoreError wraps a failure from the underlying document or content store.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("docstore %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("docstore %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// AsStoreError attempts to unwrap an error into a StoreError.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
