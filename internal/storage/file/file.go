// Package file implements storage.BlobStore on the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fridgechef/internal/storage"
)

// Compile-time interface check.
var _ storage.BlobStore = (*Store)(nil)

type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := s.safeJoin(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Set writes to a temp file in the same directory and renames it over the
// target, so a failed write never leaves a truncated blob behind.
func (s *Store) Set(ctx context.Context, name string, data []byte) error {
	path, err := s.safeJoin(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace blob: %w", err)
	}
	return nil
}

// safeJoin resolves name relative to basePath and rejects directory traversal.
func (s *Store) safeJoin(name string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, name+".json"))
	if err != nil {
		return "", fmt.Errorf("invalid blob name: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return absPath, nil
}
