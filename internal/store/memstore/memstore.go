// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"sync"

	"github.com/macbase/macbase/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store. Games are kept uncompressed.
type Store struct {
	mu       sync.RWMutex
	games    map[int][]byte
	manifest []byte
	reads    int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		games: make(map[int][]byte),
	}
}

// ReadGame returns a copy of the stored game.
func (s *Store) ReadGame(ctx context.Context, id int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	data, ok := s.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(data), nil
}

// WriteGame stores a copy of pgn so later caller mutations do not leak in.
func (s *Store) WriteGame(ctx context.Context, id int, pgn []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[id] = clone(pgn)
	return nil
}

// ReadManifest returns the stored manifest.
func (s *Store) ReadManifest(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest == nil {
		return nil, store.ErrNotFound
	}
	return clone(s.manifest), nil
}

// WriteManifest stores the manifest.
func (s *Store) WriteManifest(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = clone(data)
	return nil
}

// Len returns the number of stored games.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Reads returns the number of ReadGame calls, found or not.
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
