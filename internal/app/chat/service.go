// Package chat coordinates conversations and their message
// subcollections. Sending a message is two writes: the message document
// itself, then a summary merge on the parent chat so conversation lists
// stay current without reading every subcollection.
package chat

import (
	"context"
	"log/slog"
	"time"

	"agency-data-service/internal/docstore"
	domain "agency-data-service/internal/domain/chat"
	"agency-data-service/internal/errqueue"
	"agency-data-service/internal/logging"
	"agency-data-service/internal/metrics"
	"agency-data-service/internal/registry"
)

// Config wires a Service to its collaborators.
type Config struct {
	Store    docstore.Store
	Registry *registry.Registry[domain.Chat]
	Errors   *errqueue.Queue
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
}

// Service is the application surface for chats.
type Service struct {
	store    docstore.Store
	registry *registry.Registry[domain.Chat]
	errs     *errqueue.Queue
	logger   *slog.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	return &Service{
		store:    cfg.Store,
		registry: cfg.Registry,
		errs:     cfg.Errors,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

// List returns the current chat snapshot, most recently active first when
// the registry orders by update time.
func (s *Service) List() []domain.Chat {
	return s.registry.List()
}

// Get returns one chat from the snapshot.
func (s *Service) Get(id string) (domain.Chat, bool) {
	return s.registry.Get(id)
}

// Status reports the registry's subscription health.
func (s *Service) Status() registry.Status {
	return s.registry.Status()
}

// Create starts a new conversation and returns the store-assigned ID.
func (s *Service) Create(ctx context.Context, c domain.Chat) (string, error) {
	start := s.now()
	id, err := s.store.Create(ctx, domain.Collection, domain.Encode(c))
	s.record("create", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return id, nil
}

// Delete removes a conversation. Its message subcollection is left to the
// store's retention rules.
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

// Messages returns a chat's messages oldest first.
func (s *Service) Messages(ctx context.Context, chatID string) ([]domain.Message, error) {
	if chatID == "" {
		return nil, docstore.ErrMissingID
	}
	page, err := s.store.Query(ctx, docstore.QuerySpec{
		Collection: domain.MessagesCollection(chatID),
		OrderBy:    "sentAt",
	})
	if err != nil {
		s.report(err)
		return nil, err
	}

	out := make([]domain.Message, 0, len(page.Documents))
	for _, doc := range page.Documents {
		msg, err := domain.DecodeMessage(doc)
		if err != nil {
			logging.Warn(s.logger, "skipping undecodable message",
				slog.String(logging.FieldCollection, domain.MessagesCollection(chatID)),
				slog.String(logging.FieldDocumentID, doc.ID),
				slog.String("reason", err.Error()),
			)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Send appends a message to the chat and refreshes the parent's summary.
// The message write happens first; if the summary merge fails the message
// is already durable and only the preview lags.
func (s *Service) Send(ctx context.Context, chatID string, msg domain.Message) (string, error) {
	if chatID == "" {
		return "", docstore.ErrMissingID
	}
	sentAt := s.now()
	if msg.SentAt == nil {
		msg.SentAt = &sentAt
	}

	collection := domain.MessagesCollection(chatID)
	start := s.now()
	id, err := s.store.Create(ctx, collection, domain.EncodeMessage(msg))
	if s.metrics != nil {
		s.metrics.RecordStoreOp(collection, "create", s.now().Sub(start), err)
	}
	if err != nil {
		s.report(err)
		return "", err
	}

	start = s.now()
	err = s.store.Update(ctx, domain.Collection, chatID, domain.LastMessagePatch(msg.Text, *msg.SentAt), true)
	s.record("update", start, err)
	if err != nil {
		s.report(err)
		return "", err
	}
	return id, nil
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
