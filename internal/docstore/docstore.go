// Package docstore defines the document database contract the service is
// built against, plus an in-memory implementation. Documents are schemaless
// field maps keyed by a store-assigned ID; readers are expected to tolerate
// missing or reshaped fields.
package docstore

import (
	"context"
	"strings"
	"time"
)

// Document is a raw record as stored: an opaque ID plus untyped fields.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Filter restricts a query to documents whose field equals the given value.
type Filter struct {
	Field string
	Value any
}

// QuerySpec describes an ordered, optionally filtered read of a collection.
type QuerySpec struct {
	Collection string
	OrderBy    string
	Descending bool
	Filters    []Filter
	Limit      int
	// StartAfter marks the last document already seen; the page starts
	// strictly after it.
	StartAfter *Cursor
}

// Cursor is a pagination position: the OrderBy value of the last document
// seen plus its ID. Carrying the ID keeps documents that share the order
// value (duplicate names are normal) from being skipped across pages.
type Cursor struct {
	Value any
	ID    string
}

// Page is one ordered slice of a query result. NextCursor is nil once the
// collection is exhausted.
type Page struct {
	Documents  []Document
	NextCursor *Cursor
}

// ChangeKind classifies a change event.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one document-level event delivered on a subscription.
// For ChangeRemoved only the document ID is meaningful.
type Change struct {
	Kind ChangeKind
	Doc  Document
}

// Subscription delivers an initial snapshot as a batch of Added changes,
// then incremental batches until Cancel. Cancel is idempotent and
// deterministic: after it returns no further batches are delivered and
// the channels are closed.
type Subscription interface {
	Changes() <-chan []Change
	Errors() <-chan error
	Cancel()
}

// Update is a single entry of a batched write.
type Update struct {
	ID     string
	Fields map[string]any
	Merge  bool
}

// Store is the document database contract consumed by the service.
// Implementations assign IDs on Create and treat Delete as idempotent:
// deleting an unknown ID succeeds silently.
type Store interface {
	Query(ctx context.Context, spec QuerySpec) (Page, error)
	Subscribe(ctx context.Context, spec QuerySpec) (Subscription, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Update overwrites the document's fields, or overlays them when merge
	// is set. Both forms upsert, mirroring a document-store set().
	Update(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, collection, id string) error
	// BatchUpdate applies all entries or none of them.
	BatchUpdate(ctx context.Context, collection string, updates []Update) error
}

// CompareValues orders two field values for query sorting. Missing (nil)
// values sort after present ones; unknown types compare equal.
func CompareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			default:
				return 0
			}
		}
	default:
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// matches reports whether a document satisfies every equality filter.
func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if doc.Fields[f.Field] != f.Value {
			return false
		}
	}
	return true
}

// orderValue extracts the sort-key value for a document, nil when unset.
func orderValue(doc Document, orderBy string) any {
	if orderBy == "" {
		return nil
	}
	return doc.Fields[orderBy]
}
