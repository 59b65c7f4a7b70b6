// Package clients coordinates client reads, writes, media uploads and
// enrichment on top of the document store and the live registry.
package clients

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agency-data-service/internal/docstore"
	domain "agency-data-service/internal/domain/clients"
	"agency-data-service/internal/enrich"
	"agency-data-service/internal/errqueue"
	"agency-data-service/internal/logging"
	"agency-data-service/internal/metrics"
	"agency-data-service/internal/registry"
	"agency-data-service/internal/view"
)

const defaultEnrichTimeout = 10 * time.Second

// Config wires a Service to its collaborators.
type Config struct {
	Store         docstore.Store
	Blobs         docstore.BlobStore
	Registry      *registry.Registry[domain.Client]
	Provider      enrich.Provider
	ProviderName  string
	EnrichTimeout time.Duration
	Errors        *errqueue.Queue
	Logger        *slog.Logger
	Metrics       *metrics.Recorder
}

// Service is the application surface for clients. Reads come from the
// registry snapshot; writes go to the store and flow back through the
// subscription.
type Service struct {
	store         docstore.Store
	blobs         docstore.BlobStore
	registry      *registry.Registry[domain.Client]
	memo          *view.Memo
	provider      enrich.Provider
	providerName  string
	enrichTimeout time.Duration
	errs          *errqueue.Queue
	logger        *slog.Logger
	metrics       *metrics.Recorder
	now           func() time.Time
}

// NewService constructs a Service. A zero EnrichTimeout falls back to the
// ten-second default.
func NewService(cfg Config) *Service {
	timeout := cfg.EnrichTimeout
	if timeout <= 0 {
		timeout = defaultEnrichTimeout
	}
	name := cfg.ProviderName
	if name == "" {
		name = "unknown"
	}
	return &Service{
		store:         cfg.Store,
		blobs:         cfg.Blobs,
		registry:      cfg.Registry,
		memo:          view.NewMemo(),
		provider:      cfg.Provider,
		providerName:  name,
		enrichTimeout: timeout,
		errs:          cfg.Errors,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		now:           time.Now,
	}
}

// List returns the filtered, sorted snapshot. Repeat reads of the same
// snapshot with the same parameters reuse the memoized list.
func (s *Service) List(filters view.Filters, key view.SortKey) []domain.Client {
	return s.memo.Get(s.registry.List(), s.registry.Version(), filters, key)
}

// Get returns one client from the snapshot.
func (s *Service) Get(id string) (domain.Client, bool) {
	return s.registry.Get(id)
}

// LoadMore pulls the next page into the registry and reports how many
// documents arrived.
func (s *Service) LoadMore(ctx context.Context, limit int) (int, error) {
	return s.registry.LoadMore(ctx, limit)
}

// Status reports the registry's subscription health.
func (s *Service) Status() registry.Status {
	return s.registry.Status()
}

// Create persists a new client and returns the store-assigned ID. Any ID
// on the input is ignored.
func (s *Service) Create(ctx context.Context, c domain.Client) (string, error) {
	start := s.now()
	id, err := s.store.Create(ctx, domain.Collection, domain.Encode(c))
	s.record("create", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return id, nil
}

// Update overwrites the stored document with the client's full field set.
// A client without an ID is rejected before the store is touched.
func (s *Service) Update(ctx context.Context, c domain.Client) error {
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

// Patch merges the given fields into the stored document.
func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return docstore.ErrMissingID
	}
	start := s.now()
	err := s.store.Update(ctx, domain.Collection, id, fields, true)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

// Delete removes a client. Deleting an absent document succeeds silently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return docstore.ErrMissingID
	}
	start := s.now()
	err := s.store.Delete(ctx, domain.Collection, id)
	s.record("delete", start, err)
	if err != nil {
		s.report(err)
	}
	return err
}

// UploadPhoto stores the image bytes and then merges the resulting URL
// onto the client. The upload happens first: if it fails, the document is
// left untouched; if the merge fails after a successful upload, the blob
// is orphaned but the document stays consistent.
func (s *Service) UploadPhoto(ctx context.Context, id string, data []byte, contentType string) (string, error) {
	if id == "" {
		return "", docstore.ErrMissingID
	}

	url, err := s.blobs.Upload(ctx, "clients/"+id+"/photo", data, contentType)
	if err != nil {
		s.report(err)
		return "", err
	}

	start := s.now()
	err = s.store.Update(ctx, domain.Collection, id, domain.PhotoPatch(url), true)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return url, nil
}

// Enrich fetches supplementary profile data for a client and merges it
// into the stored document. The whole attempt runs under one deadline;
// overruns surface as a timeout error rather than a provider failure.
func (s *Service) Enrich(ctx context.Context, id string) error {
	if id == "" {
		return docstore.ErrMissingID
	}

	ctx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()

	start := s.now()
	profile, err := s.provider.FetchProfile(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &enrich.TimeoutError{Provider: s.providerName, Err: err}
		}
		_, timedOut := enrich.AsTimeoutError(err)
		if s.metrics != nil {
			s.metrics.RecordEnrichAttempt(s.providerName, s.now().Sub(start), err, timedOut)
		}
		logging.Warn(s.logger, "enrichment failed",
			slog.String(logging.FieldDocumentID, id),
			slog.String(logging.FieldProvider, s.providerName),
			slog.String("reason", err.Error()),
		)
		s.report(err)
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordEnrichAttempt(s.providerName, s.now().Sub(start), nil, false)
	}

	patch := domain.ProfilePatch(profile.HeightCM, profile.WeightKG, profile.Positions, profile.Nationalities)
	if len(patch) == 0 {
		return nil
	}
	return s.Patch(ctx, id, patch)
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
