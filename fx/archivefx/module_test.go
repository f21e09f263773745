package archivefx

import (
	"context"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/config"
	"github.com/macbase/macbase/internal/store"
)

func TestModule(t *testing.T) {
	cfg := config.Default().Archive
	cfg.Backend = "memory"

	var s store.Store
	app := fxtest.New(t,
		fx.Supply(zap.NewNop(), cfg),
		Module,
		fx.Populate(&s),
	)
	app.RequireStart()

	ctx := context.Background()
	if err := s.WriteGame(ctx, 1, []byte("1. e4 e5 *")); err != nil {
		t.Fatalf("WriteGame() error = %v", err)
	}
	got, err := s.ReadGame(ctx, 1)
	if err != nil {
		t.Fatalf("ReadGame() error = %v", err)
	}
	if string(got) != "1. e4 e5 *" {
		t.Errorf("ReadGame() = %q", got)
	}

	app.RequireStop()
}

func TestModule_InvalidConfig(t *testing.T) {
	cfg := config.Default().Archive
	cfg.Codec = "lz4"

	app := fx.New(
		fx.NopLogger,
		fx.Supply(zap.NewNop(), cfg),
		Module,
		fx.Invoke(func(store.Store) {}),
	)
	if app.Err() == nil {
		t.Error("fx.New() error = nil, want unknown codec")
	}
}
