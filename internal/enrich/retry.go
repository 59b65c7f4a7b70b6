package enrich

import (
	"context"
	"log/slog"
	"time"

	"agency-data-service/internal/logging"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingProvider wraps a Provider with retry/backoff behavior.
type retryingProvider struct {
	inner       Provider
	logger      *slog.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingProvider wraps the given provider with retries. If
// maxAttempts/backoff are <= 0, defaults are used. Not-found responses
// are returned immediately; retrying them cannot help.
func NewRetryingProvider(inner Provider, logger *slog.Logger, maxAttempts int, backoff time.Duration) Provider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingProvider{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingProvider) FetchProfile(ctx context.Context, clientID string) (Profile, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		profile, err := r.inner.FetchProfile(ctx, clientID)
		if err == nil {
			return profile, nil
		}
		if _, ok := err.(*NotFoundError); ok {
			return Profile{}, err
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		logging.Warn(r.logger, "enrichment retry",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.maxAttempts),
			slog.String("reason", err.Error()),
		)

		// backoff with context awareness
		delay := r.backoffFn(attempt)
		select {
		case <-ctx.Done():
			return Profile{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	logging.Warn(r.logger, "enrichment failed",
		slog.Int("attempts", r.maxAttempts),
		slog.String("reason", lastErr.Error()),
	)
	return Profile{}, lastErr
}
