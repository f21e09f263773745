package memory

import (
	"testing"

	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/stats"
	statslogger "github.com/macbase/macbase/internal/stats/logger"
	"github.com/macbase/macbase/internal/store/cachedstore/cachestrategy/lru"
)

func TestBackend_GetSet(t *testing.T) {
	strategy, err := lru.New(10, 0)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	if _, ok := b.Get(1); ok {
		t.Error("Get() should return false for missing key")
	}

	b.Set(1, []byte("1. e4 *"))
	data, ok := b.Get(1)
	if !ok {
		t.Error("Get() should return true after Set")
	}
	if string(data) != "1. e4 *" {
		t.Errorf("Get() = %q, want %q", data, "1. e4 *")
	}
}

func TestBackend_Stats(t *testing.T) {
	strategy, err := lru.New(10, 0)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	collector := statslogger.New(zap.NewNop())
	b := New(strategy, collector)

	b.Set(1, []byte("*"))
	b.Get(1) // hit
	b.Get(2) // miss

	got := b.Stats()
	if got.Hits != 1 || got.Misses != 1 || got.Games != 1 || got.Bytes != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 game of 1 byte", got)
	}
	if collector.Total(stats.MetricArchiveCacheHits) != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricArchiveCacheHits, collector.Total(stats.MetricArchiveCacheHits))
	}
	if collector.Total(stats.MetricArchiveCacheMisses) != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricArchiveCacheMisses, collector.Total(stats.MetricArchiveCacheMisses))
	}
}

func TestBackend_LRUEviction(t *testing.T) {
	strategy, err := lru.New(2, 0)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	b := New(strategy, nil)

	b.Set(1, []byte("one"))
	b.Set(2, []byte("two"))
	b.Get(1)                  // 1 is now the most recent
	b.Set(3, []byte("three")) // evicts 2

	if _, ok := b.Get(2); ok {
		t.Error("Get(2) should return false after eviction")
	}
	if _, ok := b.Get(1); !ok {
		t.Error("Get(1) should return true")
	}
	if _, ok := b.Get(3); !ok {
		t.Error("Get(3) should return true")
	}
}

func TestBackend_ByteBudget(t *testing.T) {
	strategy, err := lru.New(10, 10)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	collector := statslogger.New(zap.NewNop())
	b := New(strategy, collector)

	b.Set(1, []byte("1. e4 *")) // 7 bytes
	b.Set(2, []byte("1-0"))     // 10 bytes, at the budget
	if got := strategy.Bytes(); got != 10 {
		t.Fatalf("Bytes() = %d, want 10", got)
	}

	b.Set(3, []byte("0-1")) // 13 bytes, evicts game 1
	if _, ok := b.Get(1); ok {
		t.Error("Get(1) should return false once the byte budget is exceeded")
	}
	if got := strategy.Bytes(); got != 6 {
		t.Errorf("Bytes() = %d, want 6", got)
	}
	if got := collector.Gauge(stats.MetricArchiveCacheBytes); got != 6 {
		t.Errorf("%s = %d, want 6", stats.MetricArchiveCacheBytes, got)
	}
	if got := collector.Gauge(stats.MetricArchiveCacheGames); got != 2 {
		t.Errorf("%s = %d, want 2", stats.MetricArchiveCacheGames, got)
	}

	// Replacing a game accounts for the old copy.
	b.Set(2, []byte("1/2-1/2"))
	if got := strategy.Bytes(); got != 10 {
		t.Errorf("Bytes() after replace = %d, want 10", got)
	}
}

func TestLRU_OversizedGame(t *testing.T) {
	strategy, err := lru.New(10, 8)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}

	strategy.Add(1, []byte("1. d4 *"))
	strategy.Add(2, []byte("1. e4 e5 2. Nf3 *"))
	if _, ok := strategy.Get(2); ok {
		t.Error("a game larger than the byte budget should not be cached")
	}
	if _, ok := strategy.Get(1); !ok {
		t.Error("Get(1) should return true")
	}

	// A cached game that grows past the budget is dropped.
	strategy.Add(1, []byte("1. d4 d5 2. c4 *"))
	if _, ok := strategy.Get(1); ok || strategy.Bytes() != 0 {
		t.Errorf("Get(1) = %v, Bytes() = %d; want dropped and 0", ok, strategy.Bytes())
	}
}

func TestLRU_CapacityEvictionReleasesBytes(t *testing.T) {
	strategy, err := lru.New(1, 0)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}

	strategy.Add(1, []byte("1. e4 *"))
	if !strategy.Add(2, []byte("*")) {
		t.Error("Add() should report the eviction")
	}
	if got := strategy.Bytes(); got != 1 {
		t.Errorf("Bytes() = %d, want 1", got)
	}
}

func TestLRU_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := lru.New(capacity, 0); err == nil {
			t.Errorf("lru.New(%d) should return error", capacity)
		}
	}
}

// fakeStrategy is a simple strategy for testing injection.
type fakeStrategy struct {
	data map[int][]byte
}

func (s *fakeStrategy) Get(id int) ([]byte, bool) {
	v, ok := s.data[id]
	return v, ok
}

func (s *fakeStrategy) Add(id int, pgn []byte) bool {
	s.data[id] = pgn
	return false
}

func (s *fakeStrategy) Len() int {
	return len(s.data)
}

func (s *fakeStrategy) Bytes() int64 {
	var n int64
	for _, pgn := range s.data {
		n += int64(len(pgn))
	}
	return n
}

func TestBackend_InjectableStrategy(t *testing.T) {
	strategy := &fakeStrategy{data: make(map[int][]byte)}
	b := New(strategy, nil)

	b.Set(1, []byte("test"))
	data, ok := b.Get(1)
	if !ok || string(data) != "test" {
		t.Error("injectable strategy should work")
	}
}
