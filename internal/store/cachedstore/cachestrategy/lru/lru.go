// Package lru implements a least-recently-used eviction strategy.
package lru

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/macbase/macbase/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy evicts the game read longest ago once either the game count or
// the byte budget is exceeded.
type Strategy struct {
	cache    *lru.Cache[int, []byte]
	maxBytes int64

	// mu serializes Add so the byte total matches the cached games.
	mu    sync.Mutex
	bytes atomic.Int64
}

// New creates a new LRU strategy holding at most capacity games and at most
// maxBytes bytes of PGN. A maxBytes of 0 leaves the byte total unbounded.
func New(capacity int, maxBytes int64) (*Strategy, error) {
	s := &Strategy{maxBytes: maxBytes}
	c, err := lru.NewWithEvict[int, []byte](capacity, func(_ int, pgn []byte) {
		s.bytes.Add(-int64(len(pgn)))
	})
	if err != nil {
		return nil, err
	}
	s.cache = c
	return s, nil
}

// Get returns a cached game and marks it recently used.
func (s *Strategy) Get(id int) ([]byte, bool) {
	return s.cache.Get(id)
}

// Add caches a game. A game larger than the whole byte budget is not cached,
// and any older copy of it is dropped.
func (s *Strategy) Add(id int, pgn []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(pgn))
	if s.maxBytes > 0 && size > s.maxBytes {
		return s.cache.Remove(id)
	}

	// Replacing a key does not run the eviction callback.
	if old, ok := s.cache.Peek(id); ok {
		s.bytes.Add(-int64(len(old)))
	}
	s.bytes.Add(size)
	evicted := s.cache.Add(id, pgn)

	for s.maxBytes > 0 && s.bytes.Load() > s.maxBytes {
		if _, _, ok := s.cache.RemoveOldest(); !ok {
			break
		}
		evicted = true
	}
	return evicted
}

// Len returns the number of cached games.
func (s *Strategy) Len() int {
	return s.cache.Len()
}

// Bytes returns the total size of the cached games.
func (s *Strategy) Bytes() int64 {
	return s.bytes.Load()
}
