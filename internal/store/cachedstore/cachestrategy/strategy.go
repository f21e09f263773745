// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

// Strategy decides which cached games are kept. Keys are game IDs.
type Strategy interface {
	Get(id int) ([]byte, bool)
	// Add caches a game and reports whether an entry was evicted.
	Add(id int, pgn []byte) bool
	Len() int
	// Bytes is the total PGN size held.
	Bytes() int64
}
