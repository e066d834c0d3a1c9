// Package memory provides the in-process key-value store. It backs tests and
// is the fallback when a durable store turns out to be unusable.
package memory

import (
	"context"
	"strings"
	"sync"

	"fieldbook/internal/kv/core"
)

// Store implements core.Store with a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[string]string)}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) GetItem(_ context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, core.ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) SetItem(_ context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrEmptyKey
	}
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Store) RemoveItem(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Keys returns the stored keys, for tests.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}

func (s *Store) Close() error { return nil }
