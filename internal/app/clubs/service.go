// Package clubs coordinates club reads and writes. Deleting a club also
// detaches its members, so no client keeps a dangling club reference.
package clubs

import (
	"context"
	"log/slog"
	"time"

	"agency-data-service/internal/docstore"
	clientsdomain "agency-data-service/internal/domain/clients"
	domain "agency-data-service/internal/domain/clubs"
	"agency-data-service/internal/errqueue"
	"agency-data-service/internal/logging"
	"agency-data-service/internal/metrics"
	"agency-data-service/internal/registry"
)

// Config wires a Service to its collaborators.
type Config struct {
	Store    docstore.Store
	Blobs    docstore.BlobStore
	Registry *registry.Registry[domain.Club]
	Errors   *errqueue.Queue
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
}

// Service is the application surface for clubs.
type Service struct {
	store    docstore.Store
	blobs    docstore.BlobStore
	registry *registry.Registry[domain.Club]
	errs     *errqueue.Queue
	logger   *slog.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	return &Service{
		store:    cfg.Store,
		blobs:    cfg.Blobs,
		registry: cfg.Registry,
		errs:     cfg.Errors,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

// List returns the current club snapshot.
func (s *Service) List() []domain.Club {
	return s.registry.List()
}

// Get returns one club from the snapshot.
func (s *Service) Get(id string) (domain.Club, bool) {
	return s.registry.Get(id)
}

// Status reports the registry's subscription health.
func (s *Service) Status() registry.Status {
	return s.registry.Status()
}

// Create persists a new club and returns the store-assigned ID.
func (s *Service) Create(ctx context.Context, c domain.Club) (string, error) {
	start := s.now()
	id, err := s.store.Create(ctx, domain.Collection, domain.Encode(c))
	s.record("create", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return id, nil
}

// Update overwrites the stored document with the club's full field set.
func (s *Service) Update(ctx context.Context, c domain.Club) error {
	if c.ID == "" {
		return docstore.ErrMissingID
	}
	start := s.now()
	err := s.store.Update(ctx, domain.Collection, c.ID, domain.Encode(c), false)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

// Delete removes a club and clears the club reference on every client
// that pointed at it. The detachment is applied as one batch so members
// never partially detach; the club itself is removed afterwards.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return docstore.ErrMissingID
	}

	page, err := s.store.Query(ctx, docstore.QuerySpec{
		Collection: clientsdomain.Collection,
		Filters:    []docstore.Filter{clientsdomain.ClubFilter(id)},
	})
	if err != nil {
		s.report(err)
		return err
	}

	if len(page.Documents) > 0 {
		updates := make([]docstore.Update, 0, len(page.Documents))
		for _, doc := range page.Documents {
			updates = append(updates, docstore.Update{
				ID:     doc.ID,
				Fields: clientsdomain.ClubPatch(""),
				Merge:  true,
			})
		}
		if err := s.store.BatchUpdate(ctx, clientsdomain.Collection, updates); err != nil {
			s.report(err)
			return err
		}
		logging.Info(s.logger, "detached club members",
			slog.String(logging.FieldDocumentID, id),
			slog.Int(logging.FieldCount, len(updates)),
		)
	}

	start := s.now()
	err = s.store.Delete(ctx, domain.Collection, id)
	s.record("delete", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

// UploadLogo stores the image bytes and merges the resulting URL onto the
// club. A failed upload leaves the document untouched.
func (s *Service) UploadLogo(ctx context.Context, id string, data []byte, contentType string) (string, error) {
	if id == "" {
		return "", docstore.ErrMissingID
	}

	url, err := s.blobs.Upload(ctx, "clubs/"+id+"/logo", data, contentType)
	if err != nil {
		s.report(err)
		return "", err
	}

	start := s.now()
	err = s.store.Update(ctx, domain.Collection, id, domain.LogoPatch(url), true)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return url, nil
}

func (s *Service) record(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordStoreOp(domain.Collection, op, s.now().Sub(start), err)
	}
}

func (s *Service) report(err error) {
	if s.errs != nil {
		s.errs.Push(err)
	}
}
