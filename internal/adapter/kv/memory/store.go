// Package memory implements an in-process key-value store. Nothing survives
// a restart; it backs tests and the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/heartmarshall/wordbrowser/internal/domain"
)

// Store is a concurrency-safe map of string values.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns the value for key or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("kv %q: %w", key, domain.ErrNotFound)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
