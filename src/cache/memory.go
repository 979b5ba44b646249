package cache

import (
	"sync"
	"time"
)

// Entry wraps a cached value with its storage and expiry timestamps.
type Entry[V any] struct {
	Value     V
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Store is a TTL cache with a FIFO capacity bound. Expired entries are
// dropped on read; when capacity is exceeded the oldest inserted entry is
// evicted regardless of access recency.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]Entry[V]
	order   []string
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func NewStore[V any](ttl time.Duration, maxSize int) *Store[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Store[V]{
		entries: make(map[string]Entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// SetTTL changes the TTL applied to subsequent inserts.
func (s *Store[V]) SetTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
}

// Get returns the live value for key. Expired entries are removed.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	entry, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if !s.now().Before(entry.ExpiresAt) {
		s.removeLocked(key)
		return zero, false
	}
	return entry.Value, true
}

// Set stores value under key, evicting the oldest entry if the store is full.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		s.removeLocked(key)
	}

	for len(s.entries) >= s.maxSize && len(s.order) > 0 {
		s.removeLocked(s.order[0])
	}

	now := s.now()
	s.entries[key] = Entry[V]{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.order = append(s.order, key)
}

// Delete removes a single entry.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
}

// Clear removes every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry[V])
	s.order = nil
}

// Len reports the number of stored entries, including any not yet swept.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[V]) removeLocked(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
