// Package load measures evaluation latency, alone or while the other
// priority class is kept busy.
package load

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/macbase/macbase"
)

// Evaluator is the request/response side of an analyzer.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, p macbase.Priority) (*macbase.Evaluation, error)
}

// Compile-time check that *macbase.Analyzer implements Evaluator.
var _ Evaluator = (*macbase.Analyzer)(nil)

// Result holds the latencies of one run.
type Result struct {
	Priority macbase.Priority

	// Latencies are the durations of successful evaluations in seconds.
	Latencies []float64

	// Errors counts failed evaluations.
	Errors int

	Elapsed time.Duration
}

// Measure evaluates fens one after another on priority p.
func Measure(ctx context.Context, e Evaluator, fens []string, p macbase.Priority) (*Result, error) {
	res := &Result{Priority: p, Latencies: make([]float64, 0, len(fens))}
	start := time.Now()
	for _, fen := range fens {
		if err := res.evaluate(ctx, e, fen); err != nil {
			return nil, err
		}
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// UnderLoad measures p over fens while loadFENs are evaluated in a loop on
// loadP. The load stops once the measurement is done.
func UnderLoad(ctx context.Context, e Evaluator, fens []string, p macbase.Priority, loadFENs []string, loadP macbase.Priority) (measured, load *Result, err error) {
	if len(loadFENs) == 0 {
		return nil, nil, errors.New("load: no load positions")
	}

	g, gctx := errgroup.WithContext(ctx)
	loadCtx, stopLoad := context.WithCancel(gctx)
	defer stopLoad()

	load = &Result{Priority: loadP}
	g.Go(func() error {
		start := time.Now()
		defer func() { load.Elapsed = time.Since(start) }()
		for i := 0; ; i++ {
			if loadCtx.Err() != nil {
				return nil
			}
			err := load.evaluate(loadCtx, e, loadFENs[i%len(loadFENs)])
			if err != nil && loadCtx.Err() == nil {
				return err
			}
		}
	})
	g.Go(func() error {
		defer stopLoad()
		var err error
		measured, err = Measure(gctx, e, fens, p)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return measured, load, nil
}

// evaluate records one evaluation. Only context errors are returned.
func (r *Result) evaluate(ctx context.Context, e Evaluator, fen string) error {
	start := time.Now()
	_, err := e.Evaluate(ctx, fen, r.Priority)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		r.Latencies = append(r.Latencies, elapsed.Seconds())
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		r.Errors++
	}
	return nil
}
