// Package blob treats file storage as an opaque key-value byte store. Its only
// job here is moving document bytes to the verification provider.
package blob

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"fincore/pkg/platform/sentinel"
)

// Store is the minimal surface the verification dispatcher needs.
type Store interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// InMemoryStore backs tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryStore) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.blobs[key]; ok {
		return append([]byte{}, data...), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Upload(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte{}, data...)
	return nil
}

// FileStore keeps blobs on local disk for development environments.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Download(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.Clean(key)))
	if os.IsNotExist(err) {
		return nil, sentinel.ErrNotFound
	}
	return data, err
}

func (s *FileStore) Upload(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.root, filepath.Clean(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
