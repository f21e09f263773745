package macbase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/macbase/macbase/internal/oracle"
	"github.com/macbase/macbase/internal/stats"
)

// instanceState is the lifecycle of a supervised oracle.
type instanceState int

const (
	stateUninitialized instanceState = iota
	stateReady
	stateFailed
	stateClosed
)

func (s instanceState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("instanceState(%d)", int(s))
}

// instance owns one oracle and serializes access to it. The oracle is
// created on first use; after a failed call it is torn down and the next
// call starts a fresh one. Failed calls are never retried.
type instance struct {
	name    string
	cfg     oracle.Config
	factory oracle.Factory
	stats   stats.Collector
	logger  *zap.Logger

	// lock admits one caller at a time. Acquiring it is the only point
	// where a caller waits on other callers.
	lock *semaphore.Weighted

	// Guarded by lock.
	state  instanceState
	oracle oracle.Oracle
}

func newInstance(name string, cfg oracle.Config, factory oracle.Factory, sc stats.Collector, logger *zap.Logger) *instance {
	return &instance{
		name:    name,
		cfg:     cfg,
		factory: factory,
		stats:   sc,
		logger:  logger.Named(name),
		lock:    semaphore.NewWeighted(1),
	}
}

// analyze runs one search under the instance lock. The search itself runs
// on the calling goroutine; while it blocks on the engine pipe the runtime
// keeps scheduling other goroutines. ctx bounds only the wait for the lock.
func (in *instance) analyze(ctx context.Context, fen string) (*oracle.Analysis, error) {
	if err := in.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer in.lock.Release(1)

	if err := in.ensure(); err != nil {
		return nil, err
	}

	start := time.Now()
	a, err := in.oracle.Analyze(fen)
	in.stats.ObserveHistogram(stats.MetricEvaluationTime, time.Since(start).Seconds())
	if err != nil {
		in.fail(err)
		return nil, err
	}
	return a, nil
}

// ensure brings the instance to the ready state. Must hold lock.
func (in *instance) ensure() error {
	switch in.state {
	case stateReady:
		return nil
	case stateClosed:
		return ErrClosed
	case stateFailed:
		in.state = stateUninitialized
	}

	o, err := in.factory(in.cfg)
	if err != nil {
		in.logger.Warn("starting oracle failed", zap.Error(err))
		return fmt.Errorf("starting oracle: %w", err)
	}
	in.stats.IncCounter(stats.MetricOracleStarts, 1)
	in.logger.Info("oracle started", zap.Stringer("config", in.cfg))

	in.oracle = o
	in.state = stateReady
	return nil
}

// fail discards the oracle after a failed call. Must hold lock.
func (in *instance) fail(cause error) {
	in.logger.Warn("oracle failed, discarding", zap.Error(cause))
	in.stats.IncCounter(stats.MetricOracleRestarts, 1)
	if err := in.oracle.Close(); err != nil {
		in.logger.Debug("closing failed oracle", zap.Error(err))
	}
	in.oracle = nil
	in.state = stateFailed
}

// close waits for any call in flight and releases the oracle.
func (in *instance) close() error {
	// Searches have no cancellation, so this waits for the current one.
	_ = in.lock.Acquire(context.Background(), 1)
	defer in.lock.Release(1)

	if in.state == stateClosed {
		return ErrClosed
	}
	o := in.oracle
	in.oracle = nil
	in.state = stateClosed
	if o == nil {
		return nil
	}
	if err := o.Close(); err != nil {
		return fmt.Errorf("closing %s oracle: %w", in.name, err)
	}
	return nil
}

// current reports the lifecycle state. For tests and diagnostics.
func (in *instance) current() instanceState {
	_ = in.lock.Acquire(context.Background(), 1)
	defer in.lock.Release(1)
	return in.state
}
