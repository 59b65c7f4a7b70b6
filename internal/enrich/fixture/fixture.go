// Package fixture provides a canned enrichment provider for tests and
// local development.
package fixture

import (
	"context"
	"sync"

	"agency-data-service/internal/enrich"
)

// Provider serves profiles from an in-memory table.
type Provider struct {
	mu       sync.RWMutex
	profiles map[string]enrich.Profile
	err      error
}

// New constructs an empty fixture provider.
func New() *Provider {
	return &Provider{profiles: make(map[string]enrich.Profile)}
}

// Set registers the profile returned for a client ID.
func (p *Provider) Set(clientID string, profile enrich.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[clientID] = profile
}

// Fail makes every fetch return err until cleared with Fail(nil).
func (p *Provider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// FetchProfile returns the registered profile or a NotFoundError.
func (p *Provider) FetchProfile(ctx context.Context, clientID string) (enrich.Profile, error) {
	if err := ctx.Err(); err != nil {
		return enrich.Profile{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return enrich.Profile{}, p.err
	}
	profile, ok := p.profiles[clientID]
	if !ok {
		return enrich.Profile{}, &enrich.NotFoundError{ClientID: clientID}
	}
	return profile, nil
}
