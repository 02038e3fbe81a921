// SPDX-License-Identifier: MIT

// Package cache stores beat analysis documents keyed by song content digest.
// Three backends are provided: an in-memory LRU, Redis and Badger.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/dhsavell/beat-func/internal/log"
)

// Store provides thread-safe caching of small JSON documents.
type Store interface {
	// Get retrieves a value. The second return is false if not found or expired.
	Get(key string) ([]byte, bool)
	// Set stores a value with the specified TTL. A zero TTL means no expiry.
	Set(key string, value []byte, ttl time.Duration)
	// Delete removes a value.
	Delete(key string)
	// Stats returns cache statistics.
	Stats() Stats
	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

// entry is a cached value with optional expiry.
type entry struct {
	key        string
	value      []byte
	expiration time.Time
}

func (e *entry) expired() bool {
	return !e.expiration.IsZero() && time.Now().After(e.expiration)
}

// memoryStore is a size-bounded LRU with TTL support.
type memoryStore struct {
	mu       sync.Mutex
	maxItems int
	order    *list.List // front = most recently used
	items    map[string]*list.Element
	stats    Stats
}

// NewMemoryStore creates an in-memory LRU store bounded to maxItems entries.
func NewMemoryStore(maxItems int) Store {
	if maxItems < 1 {
		maxItems = 1
	}
	return &memoryStore{
		maxItems: maxItems,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (s *memoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		s.stats.Misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if e.expired() {
		s.removeLocked(el)
		s.stats.Misses++
		return nil, false
	}
	s.order.MoveToFront(el)
	s.stats.Hits++
	return e.value, true
}

func (s *memoryStore) Set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}

	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiration = exp
		s.order.MoveToFront(el)
		s.stats.Sets++
		return
	}

	el := s.order.PushFront(&entry{key: key, value: value, expiration: exp})
	s.items[key] = el
	s.stats.Sets++

	for s.order.Len() > s.maxItems {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		logger := log.WithComponent("cache")
		logger.Info().
			Str("key", oldest.Value.(*entry).key).
			Msg("evicting least recently used entry")
		s.removeLocked(oldest)
		s.stats.Evictions++
	}
}

func (s *memoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.removeLocked(el)
	}
}

func (s *memoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.CurrentSize = s.order.Len()
	return stats
}

func (s *memoryStore) HealthCheck(context.Context) error { return nil }

func (s *memoryStore) Close() error { return nil }

// removeLocked unlinks an element; callers hold the mutex.
func (s *memoryStore) removeLocked(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*entry).key)
}
