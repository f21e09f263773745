// Package cachedstore provides a read-through caching wrapper for Store
// implementations.
package cachedstore

// Backend holds cached games by ID.
type Backend interface {
	// Get retrieves a cached game. Returns nil, false if not found.
	Get(id int) ([]byte, bool)

	// Set stores a game in the cache.
	Set(id int, pgn []byte)

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats describes the game cache.
type Stats struct {
	Hits   int64
	Misses int64
	Games  int
	Bytes  int64
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
