// Package macbase parses annotated chess games and evaluates positions with
// an external engine.
//
// ParsePGN flattens one game's move tree into its mainline, the position
// after every move, the comments keyed by position and the side variations
// keyed by their parent position.
//
// An Analyzer evaluates positions in two ways. Evaluate is a request/response
// call served by two long-lived engines, one per Priority, each admitting one
// search at a time. Stream drives a dedicated engine for one connection and
// keeps evaluating the latest position the connection sent. All scores are
// reported from White's perspective.
//
// Example usage:
//
//	a, err := macbase.New(macbase.WithEnginePath("/usr/bin/stockfish"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
//	eval, err := a.Evaluate(ctx, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", macbase.PriorityPrimary)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Evaluation: %s\n", eval.Score)
package macbase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/oracle"
	"github.com/macbase/macbase/internal/oracle/uci"
	"github.com/macbase/macbase/internal/position"
	"github.com/macbase/macbase/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the analyzer has been closed.
	ErrClosed = errors.New("macbase: analyzer closed")

	// ErrInvalidPosition indicates the position descriptor cannot be analysed.
	ErrInvalidPosition = errors.New("macbase: invalid position")

	// ErrUnknownPriority indicates a priority outside the defined classes.
	ErrUnknownPriority = errors.New("macbase: unknown priority")
)

// OracleError reports a failed search. The engine behind it has been
// discarded; the next call of the same priority starts a fresh one.
type OracleError struct {
	Priority Priority
	Err      error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("macbase: %s oracle: %v", e.Priority, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Priority selects which request/response engine serves an evaluation.
type Priority int

const (
	// PriorityPrimary serves user-facing queries.
	PriorityPrimary Priority = iota

	// PriorityBackground serves speculative prefetching. It never waits on
	// primary requests.
	PriorityBackground

	numPriorities
)

func (p Priority) String() string {
	switch p {
	case PriorityPrimary:
		return "primary"
	case PriorityBackground:
		return "background"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority parses a priority name. "main" and "preload" are accepted as
// aliases of "primary" and "background"; the empty string is primary.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "primary", "main":
		return PriorityPrimary, nil
	case "background", "preload":
		return PriorityBackground, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

// Analyzer evaluates chess positions.
// An Analyzer is safe for concurrent use by multiple goroutines.
type Analyzer struct {
	instances [numPriorities]*instance
	factory   oracle.Factory
	streamCfg oracle.Config
	stats     stats.Collector
	logger    *zap.Logger
	closed    atomic.Bool

	// streams numbers sessions for logging; openStreams counts live ones.
	streams     atomic.Int64
	openStreams atomic.Int64
}

// New creates a new Analyzer with the given options. No engine is started
// until the first evaluation of each priority.
func New(opts ...Option) (*Analyzer, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.stats == nil {
		cfg.stats = stats.NewNoop()
	}
	logger := cfg.logger.Named("analyzer")

	factory := cfg.factory
	if factory == nil {
		if cfg.enginePath == "" {
			return nil, errors.New("macbase: no oracle factory or engine path")
		}
		factory = uci.Factory(cfg.enginePath, uci.WithLogger(logger.Named("engine")))
	}

	a := &Analyzer{
		factory:   factory,
		streamCfg: cfg.stream,
		stats:     cfg.stats,
		logger:    logger,
	}
	a.instances[PriorityPrimary] = newInstance("primary", cfg.primary, factory, cfg.stats, logger)
	a.instances[PriorityBackground] = newInstance("background", cfg.background, factory, cfg.stats, logger)

	logger.Debug("analyzer initialized",
		zap.Stringer("primary", cfg.primary),
		zap.Stringer("background", cfg.background),
		zap.Stringer("stream", cfg.stream),
	)
	return a, nil
}

// Evaluate analyses the position described by fen on the engine of the given
// priority. Only one evaluation per priority runs at a time; callers queue
// for it, and ctx bounds that wait. A started search runs to completion.
//
// Invalid positions are rejected with ErrInvalidPosition before reaching an
// engine. Engine failures are returned as *OracleError.
func (a *Analyzer) Evaluate(ctx context.Context, fen string, p Priority) (*Evaluation, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if p < 0 || p >= numPriorities {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPriority, int(p))
	}

	fen = strings.TrimSpace(fen)
	if err := position.Validate(fen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	a.stats.IncCounter(stats.MetricEvaluations, 1)

	res, err := a.instances[p].analyze(ctx, fen)
	if err != nil {
		a.stats.IncCounter(stats.MetricEvaluationErrors, 1)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		if errors.Is(err, ErrClosed) {
			return nil, ErrClosed
		}
		return nil, &OracleError{Priority: p, Err: err}
	}

	eval := newEvaluation(fen, res)
	a.logger.Debug("evaluated",
		zap.Stringer("priority", p),
		zap.String("fen", fen),
		zap.Stringer("score", eval.Score),
	)
	return eval, nil
}

// Close releases both request/response engines, waiting for searches in
// flight. Streams opened earlier keep their own engines until they end.
func (a *Analyzer) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs []error
	for _, in := range a.instances {
		if err := in.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
