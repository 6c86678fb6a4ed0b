package store

import (
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	payload []byte
	modTime time.Time
}

// MemoryStore is a concurrency-safe in-memory Store. Its clock can be replaced
// so tests can age entries without sleeping.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key, value: last written payload
	data map[string]memoryEntry

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// WithClock replaces the store clock and returns the store.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) IsStale(key string, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return true
	}
	return expired(entry.modTime, s.now(), ttl)
}

func (s *MemoryStore) Read(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := make([]byte, len(entry.payload))
	copy(out, entry.payload)
	return out, nil
}

func (s *MemoryStore) Write(key string, payload []byte) error {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = memoryEntry{payload: buf, modTime: s.now()}
	return nil
}

// Len returns the number of cached keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
