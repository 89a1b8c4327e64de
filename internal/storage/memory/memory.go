// Package memory provides an in-process store.Store used when the database is
// disabled and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/cory-johannsen/petheaven/internal/store"
)

// Store is a mutex-guarded map of counters.
type Store struct {
	mu     sync.Mutex
	values map[string]int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]int64)}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return 0, store.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Add(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] += delta
	return s.values[key], nil
}
