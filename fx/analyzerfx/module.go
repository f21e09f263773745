// Package analyzerfx provides an fx module for an analyzer backed by UCI
// engine processes.
package analyzerfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/config"
	"github.com/macbase/macbase/internal/stats"
)

// Module provides a *macbase.Analyzer.
// Requires a *zap.Logger and a config.Engine. A stats.Collector is used when
// one is provided.
var Module = fx.Module("analyzer",
	fx.Provide(newAnalyzer),
)

// Params holds dependencies for creating the analyzer.
type Params struct {
	fx.In

	Config    config.Engine
	Logger    *zap.Logger
	Collector stats.Collector `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided analyzer.
type Result struct {
	fx.Out

	Analyzer *macbase.Analyzer
}

func newAnalyzer(p Params) (Result, error) {
	opts := []macbase.Option{
		macbase.WithEnginePath(p.Config.Path),
		macbase.WithPrimaryConfig(p.Config.Primary),
		macbase.WithBackgroundConfig(p.Config.Background),
		macbase.WithStreamConfig(p.Config.Stream),
		macbase.WithLogger(p.Logger),
	}
	if p.Collector != nil {
		opts = append(opts, macbase.WithStats(p.Collector))
	}

	a, err := macbase.New(opts...)
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
