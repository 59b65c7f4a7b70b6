package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileScheme = "file://"
	// ctypeSuffix names the sidecar file holding a blob's content type.
	ctypeSuffix = ".ctype"
)

// FSBlobStore persists uploaded content under a base directory.
// URLs are file:// references relative to that root.
type FSBlobStore struct {
	basePath string
}

// NewFSBlobStore constructs a filesystem-backed blob store rooted at basePath.
func NewFSBlobStore(basePath string) *FSBlobStore {
	return &FSBlobStore{basePath: basePath}
}

// Upload writes the bytes to {basePath}/{path} and returns a file:// URL.
// The content type is kept in a sidecar next to the blob.
func (s *FSBlobStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &StoreError{Op: "upload", Err: err}
	}
	target, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", &StoreError{Op: "upload", Err: err}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", &StoreError{Op: "upload", Err: err}
	}
	if contentType != "" {
		if err := os.WriteFile(target+ctypeSuffix, []byte(contentType), 0o644); err != nil {
			return "", &StoreError{Op: "upload", Err: err}
		}
	}
	return fileScheme + path, nil
}

// ContentType reports the stored content type for a URL, empty when the
// upload carried none.
func (s *FSBlobStore) ContentType(url string) string {
	target, err := s.resolve(strings.TrimPrefix(url, fileScheme))
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(target + ctypeSuffix)
	if err != nil {
		return ""
	}
	return string(data)
}

// Download reads the bytes referenced by a file:// URL.
func (s *FSBlobStore) Download(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "download", Err: err}
	}
	target, err := s.resolve(strings.TrimPrefix(url, fileScheme))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, &StoreError{Op: "download", Err: err}
	}
	return data, nil
}

// resolve joins the path under the base dir and rejects traversal outside it.
func (s *FSBlobStore) resolve(path string) (string, error) {
	if path == "" {
		return "", &StoreError{Op: "resolve", Err: errors.New("path required")}
	}
	target := filepath.Join(s.basePath, filepath.FromSlash(path))
	base := filepath.Clean(s.basePath)
	if !strings.HasPrefix(target, base+string(filepath.Separator)) && target != base {
		return "", &StoreError{Op: "resolve", Err: errors.New("path escapes content dir")}
	}
	return target, nil
}
