// Package storage defines where comparison outputs are persisted.
//
// Paths are slash separated and relative to the store root. Implementations
// live in sub-packages: storagelocal writes to disk, storages3 to a bucket.
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/benedoc-inc/overlap/types"
)

// Reader provides read access to stored outputs
type Reader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Writer persists outputs
type Writer interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// Store combines read and write access
type Store interface {
	Reader
	Writer

	// Location returns a human readable address of path (a file path or a URL)
	Location(path string) string
}

// CleanPath validates a store-relative path and returns it in canonical form.
// Absolute paths and paths escaping the root are rejected.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", invalidPath(p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", invalidPath(p)
	}
	return clean, nil
}

func invalidPath(p string) error {
	return types.NewErrorf(types.ErrCodeWriteError, "invalid storage path %q", p).WithContext("path", p)
}

// ContentType returns the MIME type for a stored output, by extension
func ContentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Sub returns a view of s rooted at dir. An empty dir returns s itself.
func Sub(s Store, dir string) Store {
	if dir == "" {
		return s
	}
	return &subStore{parent: s, dir: dir}
}

type subStore struct {
	parent Store
	dir    string
}

func (s *subStore) join(p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return path.Join(s.dir, clean), nil
}

func (s *subStore) ReadFile(ctx context.Context, p string) ([]byte, error) {
	full, err := s.join(p)
	if err != nil {
		return nil, err
	}
	return s.parent.ReadFile(ctx, full)
}

func (s *subStore) Exists(ctx context.Context, p string) (bool, error) {
	full, err := s.join(p)
	if err != nil {
		return false, err
	}
	return s.parent.Exists(ctx, full)
}

func (s *subStore) WriteFile(ctx context.Context, p string, data []byte) error {
	full, err := s.join(p)
	if err != nil {
		return err
	}
	return s.parent.WriteFile(ctx, full, data)
}

func (s *subStore) Location(p string) string {
	return s.parent.Location(path.Join(s.dir, p))
}
