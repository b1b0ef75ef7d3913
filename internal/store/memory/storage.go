package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/wolfeidau/homebrief/internal/store"
)

// Storage implements store.Storage using in-memory storage.
// Data is lost on restart, so this is for tests and throwaway sessions.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStorage creates a new in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		values: make(map[string][]byte),
	}
}

// Get retrieves a copy of the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	if !exists {
		return nil, store.ErrKeyNotFound
	}

	// Clone to avoid external modifications
	return slices.Clone(value), nil
}

// Put stores a copy of value under key.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = slices.Clone(value)
	return nil
}

// Delete removes key if present.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}
