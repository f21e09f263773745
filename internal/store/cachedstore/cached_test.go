package cachedstore

import (
	"context"
	"errors"
	"testing"

	"github.com/macbase/macbase/internal/store"
	"github.com/macbase/macbase/internal/store/memstore"
)

// fakeBackend is a simple in-memory backend for testing.
type fakeBackend struct {
	data   map[int][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[int][]byte)}
}

func (b *fakeBackend) Get(id int) ([]byte, bool) {
	if data, ok := b.data[id]; ok {
		b.hits++
		return data, true
	}
	b.misses++
	return nil, false
}

func (b *fakeBackend) Set(id int, data []byte) {
	b.data[id] = data
}

func (b *fakeBackend) Stats() Stats {
	return Stats{Hits: b.hits, Misses: b.misses, Games: len(b.data)}
}

func TestStore_CacheHit(t *testing.T) {
	backend := newFakeBackend()
	underlying := memstore.New()

	// Pre-populate cache.
	backend.Set(1, []byte("1. d4 *"))

	s := New(underlying, backend)
	data, err := s.ReadGame(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReadGame() error = %v", err)
	}
	if string(data) != "1. d4 *" {
		t.Errorf("ReadGame() = %q, want %q", data, "1. d4 *")
	}
	if underlying.Reads() != 0 {
		t.Errorf("underlying Reads() = %d, want 0", underlying.Reads())
	}
	if stats := s.Stats(); stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
}

func TestStore_CacheMiss(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	underlying := memstore.New()
	if err := underlying.WriteGame(ctx, 1, []byte("1. e4 *")); err != nil {
		t.Fatal(err)
	}

	s := New(underlying, backend)
	for i := 0; i < 2; i++ {
		data, err := s.ReadGame(ctx, 1)
		if err != nil {
			t.Fatalf("ReadGame() error = %v", err)
		}
		if string(data) != "1. e4 *" {
			t.Errorf("ReadGame() = %q, want %q", data, "1. e4 *")
		}
	}

	if underlying.Reads() != 1 {
		t.Errorf("underlying Reads() = %d, want 1", underlying.Reads())
	}
	stats := s.Stats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestStore_WriteThrough(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	underlying := memstore.New()
	s := New(underlying, backend)

	backend.Set(3, []byte("stale"))
	pgn := []byte("1. c4 *")
	if err := s.WriteGame(ctx, 3, pgn); err != nil {
		t.Fatalf("WriteGame() error = %v", err)
	}
	pgn[0] = 'X'

	if got := string(backend.data[3]); got != "1. c4 *" {
		t.Errorf("cached game = %q, want %q", got, "1. c4 *")
	}
	if underlying.Len() != 1 {
		t.Errorf("underlying Len() = %d, want 1", underlying.Len())
	}
}

func TestStore_Manifest(t *testing.T) {
	ctx := context.Background()
	underlying := memstore.New()
	s := New(underlying, newFakeBackend())

	if err := s.WriteManifest(ctx, []byte("{}")); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	if got, err := underlying.ReadManifest(ctx); err != nil || string(got) != "{}" {
		t.Errorf("underlying ReadManifest() = %q, %v", got, err)
	}
}

func TestStore_NotFound(t *testing.T) {
	backend := newFakeBackend()
	s := New(memstore.New(), backend)

	_, err := s.ReadGame(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadGame() error = %v, want ErrNotFound", err)
	}
	if len(backend.data) != 0 {
		t.Error("missing games must not be cached")
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected float64
	}{
		{"no requests", 0, 0, 0},
		{"all hits", 10, 0, 100},
		{"all misses", 0, 10, 0},
		{"50% hit rate", 5, 5, 50},
		{"75% hit rate", 3, 1, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.expected {
				t.Errorf("HitRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}
