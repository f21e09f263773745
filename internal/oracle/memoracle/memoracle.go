// Package memoracle provides a scripted in-memory oracle.
//
// It answers from a table of canned analyses and is meant for tests and for
// running the service without an engine binary.
package memoracle

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/macbase/macbase/internal/oracle"
)

// Oracle is an in-memory oracle.Oracle.
type Oracle struct {
	book   *Book
	cfg    oracle.Config
	closed atomic.Bool
}

// Compile-time check that Oracle implements oracle.Oracle.
var _ oracle.Oracle = (*Oracle)(nil)

// Book is the script shared by every Oracle a Factory creates. It is safe for
// concurrent use.
type Book struct {
	mu       sync.Mutex
	results  map[string]*oracle.Analysis
	failures map[string]error
	fallback *oracle.Analysis

	// hook runs at the start of every Analyze call, outside the lock.
	hook func(fen string)

	created  atomic.Int64
	closed   atomic.Int64
	analyses atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

// NewBook returns an empty book. Unknown positions analyse to a single
// centipawn line with score 0.
func NewBook() *Book {
	return &Book{
		results:  make(map[string]*oracle.Analysis),
		failures: make(map[string]error),
	}
}

// Set scripts the analysis returned for fen.
func (b *Book) Set(fen string, a *oracle.Analysis) *Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[fen] = a
	return b
}

// SetDefault scripts the analysis returned for positions not in the book.
func (b *Book) SetDefault(a *oracle.Analysis) *Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallback = a
	return b
}

// Fail makes every analysis of fen return err.
func (b *Book) Fail(fen string, err error) *Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[fen] = err
	return b
}

// Clear removes any scripted failure for fen.
func (b *Book) Clear(fen string) *Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, fen)
	return b
}

// OnAnalyze installs a hook that runs at the start of every analysis. Tests
// use it to hold a search open.
func (b *Book) OnAnalyze(hook func(fen string)) *Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hook = hook
	return b
}

// Created returns the number of oracles the book's factory has created.
func (b *Book) Created() int { return int(b.created.Load()) }

// Closed returns the number of oracles that have been closed.
func (b *Book) Closed() int { return int(b.closed.Load()) }

// Analyses returns the number of Analyze calls served.
func (b *Book) Analyses() int { return int(b.analyses.Load()) }

// MaxConcurrent returns the highest number of Analyze calls seen in flight
// at once across all oracles of the book.
func (b *Book) MaxConcurrent() int { return int(b.maxSeen.Load()) }

// Factory returns an oracle.Factory creating oracles that answer from b.
func (b *Book) Factory() oracle.Factory {
	return func(cfg oracle.Config) (oracle.Oracle, error) {
		return b.New(cfg), nil
	}
}

// New creates an oracle that answers from b.
func (b *Book) New(cfg oracle.Config) *Oracle {
	b.created.Add(1)
	return &Oracle{book: b, cfg: cfg}
}

// Config returns the configuration the oracle was created with.
func (o *Oracle) Config() oracle.Config {
	return o.cfg
}

// Analyze implements oracle.Oracle.
func (o *Oracle) Analyze(fen string) (*oracle.Analysis, error) {
	if o.closed.Load() {
		return nil, oracle.ErrClosed
	}
	b := o.book

	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		seen := b.maxSeen.Load()
		if n <= seen || b.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	b.mu.Lock()
	hook := b.hook
	b.mu.Unlock()
	if hook != nil {
		hook(fen)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.analyses.Add(1)

	if err := b.failures[fen]; err != nil {
		return nil, fmt.Errorf("analysing %s: %w", fen, err)
	}
	a, ok := b.results[fen]
	if !ok {
		a = b.fallback
	}
	if a == nil {
		return &oracle.Analysis{
			Depth: o.cfg.Depth,
			Lines: []oracle.Line{{Score: oracle.Score{Kind: oracle.Centipawn}}},
		}, nil
	}
	return clone(a, o.cfg.MultiPV), nil
}

// Close implements oracle.Oracle.
func (o *Oracle) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return oracle.ErrClosed
	}
	o.book.closed.Add(1)
	return nil
}

// clone copies a so callers may modify the result, keeping at most multiPV
// lines when multiPV is positive.
func clone(a *oracle.Analysis, multiPV int) *oracle.Analysis {
	out := &oracle.Analysis{Depth: a.Depth, BestMove: a.BestMove}
	for i, l := range a.Lines {
		if multiPV > 0 && i >= multiPV {
			break
		}
		l.PV = append([]string(nil), l.PV...)
		out.Lines = append(out.Lines, l)
	}
	return out
}
