// Package records provides a generic application service for the simple
// record kinds (contracts, transfers, sponsors, activities) that share the
// same read/write shape and need no bespoke behavior.
package records

import (
	"context"
	"log/slog"
	"time"

	"agency-data-service/internal/docstore"
	"agency-data-service/internal/errqueue"
	"agency-data-service/internal/metrics"
	"agency-data-service/internal/registry"
)

// Codec binds one record kind to its collection and field mapping.
type Codec[T registry.Entity] struct {
	Collection string
	Decode     func(docstore.Document) (T, error)
	Encode     func(T) map[string]any
}

// Config wires a Service to its collaborators.
type Config[T registry.Entity] struct {
	Store    docstore.Store
	Codec    Codec[T]
	Registry *registry.Registry[T]
	Errors   *errqueue.Queue
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
}

// Service is the shared application surface for one record kind.
type Service[T registry.Entity] struct {
	store    docstore.Store
	codec    Codec[T]
	registry *registry.Registry[T]
	errs     *errqueue.Queue
	logger   *slog.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewService constructs a Service.
func NewService[T registry.Entity](cfg Config[T]) *Service[T] {
	return &Service[T]{
		store:    cfg.Store,
		codec:    cfg.Codec,
		registry: cfg.Registry,
		errs:     cfg.Errors,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

// List returns the current snapshot.
func (s *Service[T]) List() []T {
	return s.registry.List()
}

// Get returns one record from the snapshot.
func (s *Service[T]) Get(id string) (T, bool) {
	return s.registry.Get(id)
}

// Status reports the registry's subscription health.
func (s *Service[T]) Status() registry.Status {
	return s.registry.Status()
}

// LoadMore pulls the next page into the registry.
func (s *Service[T]) LoadMore(ctx context.Context, limit int) (int, error) {
	return s.registry.LoadMore(ctx, limit)
}

// Create persists a new record and returns the store-assigned ID.
func (s *Service[T]) Create(ctx context.Context, record T) (string, error) {
	start := s.now()
	id, err := s.store.Create(ctx, s.codec.Collection, s.codec.Encode(record))
	s.record("create", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return id, nil
}

// Update overwrites the stored document with the record's full field set.
func (s *Service[T]) Update(ctx context.Context, record T) error {
	if record.Key() == "" {
		return docstore.ErrMissingID
	}
	start := s.now()
	err := s.store.Update(ctx, s.codec.Collection, record.Key(), s.codec.Encode(record), false)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

// Patch merges the given fields into the stored document.
func (s *Service[T]) Patch(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return docstore.ErrMissingID
	}
	start := s.now()
	err := s.store.Update(ctx, s.codec.Collection, id, fields, true)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

// Delete removes a record. Deleting an absent document succeeds silently.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return docstore.ErrMissingID
	}
	start := s.now()
	err := s.store.Delete(ctx, s.codec.Collection, id)
	s.record("delete", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

func (s *Service[T]) record(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordStoreOp(s.codec.Collection, op, s.now().Sub(start), err)
	}
}

func (s *Service[T]) report(err error) {
	if s.errs != nil {
		s.errs.Push(err)
	}
}
