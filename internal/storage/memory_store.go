package storage

import (
	"context"
	"sync"
)

// MemoryStore is the in-memory Store used by tests and as the fallback when
// no database path is configured. Setting Unavailable makes every operation
// fail with ErrUnavailable, which is how tests exercise degraded persistence.
type MemoryStore struct {
	mu          sync.Mutex
	data        map[string]string
	Unavailable bool
	SetCalls    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string]string),
		SetCalls: make(map[string]int),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return "", false, ErrUnavailable
	}
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return ErrUnavailable
	}
	s.data[key] = value
	s.SetCalls[key]++
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return ErrUnavailable
	}
	delete(s.data, key)
	return nil
}

// Seed stores value under key bypassing the Unavailable switch.
func (s *MemoryStore) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Contents returns a copy of the stored data.
func (s *MemoryStore) Contents() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}
