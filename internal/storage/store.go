package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists uploaded files between the upload and confirm steps.
type FileStore interface {
	// Put writes the file under the given path and returns the reference
	// used to fetch it back later.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Get fetches a previously stored file by reference.
	Get(ctx context.Context, ref string) ([]byte, error)
}

// LocalStore keeps files on the local filesystem, for development and tests.
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

func (s *LocalStore) Put(_ context.Context, path string, data []byte, _ string) (string, error) {
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Get(_ context.Context, ref string) ([]byte, error) {
	full := filepath.Join(s.Root, filepath.FromSlash(ref))
	if !strings.HasPrefix(filepath.Clean(full), filepath.Clean(s.Root)) {
		return nil, fmt.Errorf("reference escapes storage root: %s", ref)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
