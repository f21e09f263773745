// Package memory implements an in-memory cache backend.
package memory

import (
	"sync/atomic"

	"github.com/macbase/macbase/internal/stats"
	"github.com/macbase/macbase/internal/store/cachedstore"
	"github.com/macbase/macbase/internal/store/cachedstore/cachestrategy"
)

// Compile-time check that Backend implements cachedstore.Backend.
var _ cachedstore.Backend = (*Backend)(nil)

// Backend is an in-memory cache backend. It is safe for concurrent use when
// its strategy is.
type Backend struct {
	strategy  cachestrategy.Strategy
	collector stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new memory backend with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy cachestrategy.Strategy, collector stats.Collector) *Backend {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Backend{
		strategy:  strategy,
		collector: collector,
	}
}

// Get retrieves a game from the cache.
func (b *Backend) Get(id int) ([]byte, bool) {
	if pgn, ok := b.strategy.Get(id); ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricArchiveCacheHits, 1)
		return pgn, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricArchiveCacheMisses, 1)
	return nil, false
}

// Set stores a game in the cache.
func (b *Backend) Set(id int, pgn []byte) {
	b.strategy.Add(id, pgn)
	b.collector.SetGauge(stats.MetricArchiveCacheGames, int64(b.strategy.Len()))
	b.collector.SetGauge(stats.MetricArchiveCacheBytes, b.strategy.Bytes())
}

// Stats returns current cache statistics.
func (b *Backend) Stats() cachedstore.Stats {
	return cachedstore.Stats{
		Hits:   b.hits.Load(),
		Misses: b.misses.Load(),
		Games:  b.strategy.Len(),
		Bytes:  b.strategy.Bytes(),
	}
}
