package memory

import (
	"context"
	"sync"

	"spendlog/internal/storage"
)

// Store keeps blobs in a map. Contents are lost when the process exits.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ storage.BlobStore = (*Store)(nil)

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob so callers cannot mutate stored state.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *Store) Set(_ context.Context, key string, blob []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}
