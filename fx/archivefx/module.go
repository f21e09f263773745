// Package archivefx provides an fx module for the game archive store.
package archivefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/archive"
	"github.com/macbase/macbase/internal/config"
	"github.com/macbase/macbase/internal/stats"
	"github.com/macbase/macbase/internal/store"
)

// Module provides the store.Store described by a config.Archive.
// Requires a *zap.Logger. A stats.Collector is used when one is provided.
var Module = fx.Module("archive",
	fx.Provide(newStore),
)

// Params holds dependencies for opening the store.
type Params struct {
	fx.In

	Config    config.Archive
	Logger    *zap.Logger
	Collector stats.Collector `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Result holds the provided store.
type Result struct {
	fx.Out

	Store store.Store
}

func newStore(p Params) (Result, error) {
	s, err := archive.Open(context.Background(), p.Config, p.Collector, p.Logger)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close()
		},
	})

	return Result{Store: s}, nil
}
