// Package postgres provides a SQL-backed docstore.Store. Documents live in a
// single table as JSON field blobs; live subscriptions are implemented as a
// poll-and-diff loop since Postgres has no native change feed for this shape.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agency-data-service/internal/docstore"
)

const defaultPollInterval = 5 * time.Second

type documentRow struct {
	Collection string `gorm:"primaryKey;size:128"`
	DocID      string `gorm:"primaryKey;size:64;column:doc_id"`
	Fields     []byte `gorm:"type:jsonb"`
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// Config tunes the Postgres store.
type Config struct {
	DSN          string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Store implements docstore.Store on top of gorm/Postgres.
type Store struct {
	db           *gorm.DB
	pollInterval time.Duration
	logger       *slog.Logger
	newID        func() string
}

// Open connects to Postgres and migrates the documents table.
func Open(cfg Config) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &docstore.StoreError{Op: "open", Err: err}
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, &docstore.StoreError{Op: "migrate", Err: err}
	}
	return newStore(db, cfg), nil
}

func newStore(db *gorm.DB, cfg Config) *Store {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Store{
		db:           db,
		pollInterval: interval,
		logger:       cfg.Logger,
		newID:        uuid.NewString,
	}
}

// Query returns an ordered page of matching documents. Filtering and
// ordering run in Go against the schemaless field blobs, matching the
// memory store's semantics exactly.
func (s *Store) Query(ctx context.Context, spec docstore.QuerySpec) (docstore.Page, error) {
	docs, err := s.fetchCollection(ctx, spec.Collection)
	if err != nil {
		return docstore.Page{}, err
	}
	return docstore.PageOf(docs, spec), nil
}

// Subscribe starts a poll-and-diff loop delivering an initial snapshot and
// then incremental change batches every poll interval.
func (s *Store) Subscribe(ctx context.Context, spec docstore.QuerySpec) (docstore.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, &docstore.StoreError{Op: "subscribe", Collection: spec.Collection, Err: err}
	}
	sub := newPollSub(s, spec)
	go sub.run()
	return sub, nil
}

// Create inserts a new document under a generated ID.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.newID()
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", &docstore.StoreError{Op: "create", Collection: collection, Err: err}
	}
	row := documentRow{Collection: collection, DocID: id, Fields: raw}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", &docstore.StoreError{Op: "create", Collection: collection, Err: err}
	}
	return id, nil
}

// Update overwrites or merges a document's fields, upserting when absent.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if id == "" {
		return docstore.ErrMissingID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyUpdate(tx, collection, docstore.Update{ID: id, Fields: fields, Merge: merge})
	})
}

// Delete removes a document; unknown IDs succeed silently.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return docstore.ErrMissingID
	}
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRow{}).Error
	if err != nil {
		return &docstore.StoreError{Op: "delete", Collection: collection, Err: err}
	}
	return nil
}

// BatchUpdate applies all entries inside one transaction.
func (s *Store) BatchUpdate(ctx context.Context, collection string, updates []docstore.Update) error {
	for _, u := range updates {
		if u.ID == "" {
			return docstore.ErrMissingID
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := applyUpdate(tx, collection, u); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var se *docstore.StoreError
		if errors.As(err, &se) {
			return err
		}
		return &docstore.StoreError{Op: "batch", Collection: collection, Err: err}
	}
	return nil
}

func applyUpdate(tx *gorm.DB, collection string, u docstore.Update) error {
	var fields map[string]any
	if u.Merge {
		var existing documentRow
		err := tx.Where("collection = ? AND doc_id = ?", collection, u.ID).First(&existing).Error
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(existing.Fields, &fields); jsonErr != nil {
				fields = map[string]any{}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			fields = map[string]any{}
		default:
			return &docstore.StoreError{Op: "update", Collection: collection, Err: err}
		}
		for k, v := range u.Fields {
			fields[k] = v
		}
	} else {
		fields = u.Fields
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return &docstore.StoreError{Op: "update", Collection: collection, Err: err}
	}

	row := documentRow{Collection: collection, DocID: u.ID, Fields: raw}
	err = tx.Save(&row).Error
	if err != nil {
		return &docstore.StoreError{Op: "update", Collection: collection, Err: err}
	}
	return nil
}

func (s *Store) fetchCollection(ctx context.Context, collection string) ([]docstore.Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Find(&rows).Error
	if err != nil {
		return nil, &docstore.StoreError{Op: "query", Collection: collection, Err: err}
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		var fields map[string]any
		if err := json.Unmarshal(row.Fields, &fields); err != nil {
			// A corrupt blob only loses that document, not the batch.
			if s.logger != nil {
				s.logger.Warn("skipping undecodable document",
					slog.String("collection", collection), slog.String("document_id", row.DocID))
			}
			continue
		}
		docs = append(docs, docstore.Document{ID: row.DocID, Fields: fields})
	}
	return docs, nil
}
