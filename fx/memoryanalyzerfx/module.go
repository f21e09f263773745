// Package memoryanalyzerfx provides an fx module for an analyzer backed by
// scripted in-memory oracles. Useful for testing.
package memoryanalyzerfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/oracle/memoracle"
	"github.com/macbase/macbase/internal/stats"
	"github.com/macbase/macbase/internal/stats/logger"
)

// Module provides an in-memory analyzer and the book that scripts it.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryanalyzer",
	fx.Provide(
		newStatsCollector,
		memoracle.NewBook,
		newAnalyzer,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("analyzer.stats"))
}

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Book      *memoracle.Book
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *macbase.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	a, err := macbase.New(
		macbase.WithOracleFactory(p.Book.Factory()),
		macbase.WithStats(p.Collector),
		macbase.WithLogger(p.Logger),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return a.Close()
		},
	})

	return Result{Analyzer: a}, nil
}
