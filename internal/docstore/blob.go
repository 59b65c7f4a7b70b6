package docstore

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// BlobStore is the content-store contract for entity-associated binaries
// (profile photos, club logos, contract documents). Upload returns the URL
// to persist back onto the owning entity.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// ErrBlobNotFound reports a download for an unknown URL.
var ErrBlobNotFound = errors.New("docstore: blob not found")

const memScheme = "mem://"

type blob struct {
	data        []byte
	contentType string
}

// MemoryBlobStore keeps uploaded content in memory, for tests and the
// default configuration.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewMemoryBlobStore constructs an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]blob)}
}

// Upload stores the bytes under the given path and returns a mem:// URL.
func (s *MemoryBlobStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StoreError{Op: "upload", Err: err}
	}
	if path == "" {
		return "", &StoreError{Op: "upload", Err: errors.New("path required")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = blob{data: append([]byte(nil), data...), contentType: contentType}
	return memScheme + path, nil
}

// Download returns the bytes previously uploaded for the URL.
func (s *MemoryBlobStore) Download(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "download", Err: err}
	}

	path := strings.TrimPrefix(url, memScheme)

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), b.data...), nil
}

// ContentType reports the stored content type for a URL (test helper).
func (s *MemoryBlobStore) ContentType(url string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blobs[strings.TrimPrefix(url, memScheme)].contentType
}
