package casestore

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore implements Store in memory with TTL-based archival.
// Completed cases age out instead of requiring explicit teardown.
type MemoryStore struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

// NewMemoryStore creates a new memory store. State scopes expire after ttl;
// a pipeline run refreshes the TTL on every write.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryStore{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Create establishes a fresh state scope for a case
func (s *MemoryStore) Create(caseID string, initial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.cache.Get(caseID); found {
		return fmt.Errorf("case %s already exists", caseID)
	}

	state := make(map[string]any, len(initial))
	for k, v := range initial {
		state[k] = v
	}
	s.cache.SetDefault(caseID, state)
	return nil
}

// Get returns a copy of the case's state map. The values themselves are
// shared with the store; callers must treat them as read-only.
func (s *MemoryStore) Get(caseID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found := s.state(caseID)
	if !found {
		return nil, ErrNotFound
	}

	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out, nil
}

// Set writes one stage output under its key
func (s *MemoryStore) Set(caseID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found := s.state(caseID)
	if !found {
		return ErrNotFound
	}

	state[key] = value
	s.cache.SetDefault(caseID, state) // Refresh TTL
	return nil
}

// Value reads one stage output
func (s *MemoryStore) Value(caseID, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found := s.state(caseID)
	if !found {
		return nil, false
	}
	v, ok := state[key]
	return v, ok
}

// Delete tears down a case's state scope
func (s *MemoryStore) Delete(caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(caseID)
	return nil
}

func (s *MemoryStore) state(caseID string) (map[string]any, bool) {
	v, found := s.cache.Get(caseID)
	if !found {
		return nil, false
	}
	return v.(map[string]any), true
}
