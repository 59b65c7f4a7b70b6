// Package enrich fetches supplementary profile data for clients from an
// upstream provider. Providers are composable: the HTTP client at the core
// can be wrapped with retry behavior, and a fixture provider serves tests
// and local development.
package enrich

import (
	"context"
	"errors"
	"fmt"
)

// Profile is the normalized enrichment payload merged onto a client.
// Nil fields were not reported by the provider and leave the stored
// value untouched.
type Profile struct {
	HeightCM      *int
	WeightKG      *int
	Positions     []string
	Nationalities []string
}

// Provider fetches a profile for one client. Implementations must honor
// context cancellation; the service layer enforces the overall deadline.
type Provider interface {
	FetchProfile(ctx context.Context, clientID string) (Profile, error)
}

// TimeoutError marks an enrichment attempt that exceeded its deadline.
// It is distinguished from other provider failures so callers can report
// "took too long" rather than "provider broken".
type TimeoutError struct {
	Provider string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("enrichment via %s timed out", e.Provider)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// AsTimeoutError attempts to unwrap an error into a TimeoutError.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var tErr *TimeoutError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}

// NotFoundError marks a client the provider has no data for.
type NotFoundError struct {
	ClientID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no enrichment data for client %s", e.ClientID)
}
