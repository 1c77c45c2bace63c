// Package storagelocal stores outputs under a directory on local disk
package storagelocal

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/types"
)

// Store implements storage.Store on the local file system
type Store struct {
	root string
}

var _ storage.Store = (*Store)(nil)

// New creates the root directory if needed and returns a store rooted at it
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, types.WrapError(types.ErrCodeIOError, "failed to create output directory", err).
			WithContext("path", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeIOError, "failed to resolve output directory", err).
			WithContext("path", root)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory
func (s *Store) Root() string {
	return s.root
}

// WriteFile replaces path atomically: data goes to a temp file in the same
// directory which is then renamed over the destination.
func (s *Store) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := s.fullPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeErr(path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return writeErr(path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return writeErr(path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return writeErr(path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return writeErr(path, err)
	}
	_ = os.Chmod(tmpPath, 0o644)
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return writeErr(path, err)
	}
	return nil
}

func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeIOError, "failed to read output", err).WithContext("path", path)
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, types.WrapError(types.ErrCodeIOError, "failed to stat output", err).WithContext("path", path)
	}
	return true, nil
}

// Location returns the absolute file path
func (s *Store) Location(path string) string {
	full, err := s.fullPath(path)
	if err != nil {
		return filepath.Join(s.root, path)
	}
	return full
}

func (s *Store) fullPath(path string) (string, error) {
	rel, err := storage.CleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

func writeErr(path string, err error) error {
	return types.WrapError(types.ErrCodeWriteError, "failed to write output", err).WithContext("path", path)
}
