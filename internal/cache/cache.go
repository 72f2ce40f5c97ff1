// Package cache is a process-memory TTL key/value store. Entries expire by
// wall-clock comparison at read time; no background sweep is needed for
// correctness. Absence is an ordinary outcome, never an error.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Store caches values of one type for a TTL. The zero value is not usable;
// construct with New.
type Store[T any] struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]entry[T]
}

func New[T any]() *Store[T] {
	return &Store[T]{Now: time.Now, items: make(map[string]entry[T])}
}

// Get returns the live value for key. A missing or expired entry yields
// ok=false; expired entries are kept for GetStale until overwritten.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	if !ok || !s.Now().Before(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetStale returns the entry for key regardless of expiry, along with its
// expiry time. This is the failure-fallback escape hatch: serving expired
// data beats serving none when every upstream is down.
func (s *Store[T]) GetStale(key string) (T, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	if !ok {
		var zero T
		return zero, time.Time{}, false
	}
	return e.value, e.expiresAt, true
}

// Set stores value under key for ttl, replacing any previous generation.
func (s *Store[T]) Set(key string, value T, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry[T]{value: value, expiresAt: s.Now().Add(ttl)}
}

// Invalidate removes the exact key.
func (s *Store[T]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// InvalidatePrefix removes every key sharing prefix, so a write to one
// resource can drop a whole family of derived entries.
func (s *Store[T]) InvalidatePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
		}
	}
}
