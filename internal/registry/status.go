package registry

import "time"

// Status describes the recent health of a registry's subscription.
type Status struct {
	Ready          bool
	Events         int
	DecodeFailures int
	LastError      string
	LastEventAt    time.Time
}

// IsReady reports whether the initial snapshot has been merged.
func (s Status) IsReady() bool {
	return s.Ready
}
