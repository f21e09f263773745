// Package oracle defines the contract for a depth-bounded position search.
//
// An Oracle evaluates one position at a time and reports every score relative
// to the side to move. Implementations are not safe for concurrent use; the
// caller owns an instance and serializes access to it.
package oracle

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrExited indicates the oracle process is gone.
	ErrExited = errors.New("oracle: engine exited")

	// ErrProtocol indicates the oracle replied with something unexpected.
	ErrProtocol = errors.New("oracle: protocol error")

	// ErrClosed indicates the oracle has been closed.
	ErrClosed = errors.New("oracle: closed")
)

// Config is the search configuration of one oracle instance.
type Config struct {
	// Depth bounds the search in plies.
	Depth int `mapstructure:"depth"`

	// Threads is the number of search threads.
	Threads int `mapstructure:"threads"`

	// HashMB is the transposition table budget in megabytes.
	HashMB int `mapstructure:"hash_mb"`

	// MultiPV is the number of ranked candidate lines to return.
	MultiPV int `mapstructure:"multipv"`
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("depth=%d threads=%d hash=%dMB multipv=%d", c.Depth, c.Threads, c.HashMB, c.MultiPV)
}

// ScoreKind tells centipawn scores apart from forced-mate counts.
type ScoreKind int

const (
	Centipawn ScoreKind = iota
	Mate
)

func (k ScoreKind) String() string {
	if k == Mate {
		return "mate"
	}
	return "cp"
}

// Score is a search score relative to the side to move.
type Score struct {
	Kind  ScoreKind
	Value int
}

// Negate flips the score to the other side's point of view.
func (s Score) Negate() Score {
	return Score{Kind: s.Kind, Value: -s.Value}
}

// Line is one ranked candidate.
type Line struct {
	// Move is the first move of the line in UCI coordinate notation.
	Move string

	Score Score

	// PV is the principal variation in UCI notation, starting with Move.
	PV []string
}

// Analysis is the result of one search. Lines are ranked best first.
type Analysis struct {
	Depth int
	Lines []Line

	// BestMove is the move the oracle settled on, in UCI notation. Empty
	// when the position has no legal moves.
	BestMove string
}

// Oracle evaluates positions.
type Oracle interface {
	// Analyze searches the position described by fen and blocks until the
	// search completes.
	Analyze(fen string) (*Analysis, error)

	// Close releases the oracle and any process behind it.
	Close() error
}

// Factory creates an oracle instance for a configuration.
type Factory func(cfg Config) (Oracle, error)
