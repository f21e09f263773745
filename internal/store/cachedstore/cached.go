package cachedstore

import (
	"context"

	"github.com/macbase/macbase/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store wraps another Store with a game cache. Writes go through to the
// underlying store and refresh the cached copy. The manifest is never cached.
type Store struct {
	underlying store.Store
	backend    Backend
}

// New creates a new cached store wrapping the given store.
func New(underlying store.Store, backend Backend) *Store {
	return &Store{
		underlying: underlying,
		backend:    backend,
	}
}

// ReadGame reads a game, checking the cache first. The returned slice is
// shared with the cache and must not be modified.
func (s *Store) ReadGame(ctx context.Context, id int) ([]byte, error) {
	if data, ok := s.backend.Get(id); ok {
		return data, nil
	}

	data, err := s.underlying.ReadGame(ctx, id)
	if err != nil {
		return nil, err
	}

	s.backend.Set(id, data)
	return data, nil
}

// WriteGame writes a game to the underlying store and caches it.
func (s *Store) WriteGame(ctx context.Context, id int, pgn []byte) error {
	if err := s.underlying.WriteGame(ctx, id, pgn); err != nil {
		return err
	}
	cached := make([]byte, len(pgn))
	copy(cached, pgn)
	s.backend.Set(id, cached)
	return nil
}

// ReadManifest reads the manifest from the underlying store.
func (s *Store) ReadManifest(ctx context.Context) ([]byte, error) {
	return s.underlying.ReadManifest(ctx)
}

// WriteManifest writes the manifest to the underlying store.
func (s *Store) WriteManifest(ctx context.Context, data []byte) error {
	return s.underlying.WriteManifest(ctx, data)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}
