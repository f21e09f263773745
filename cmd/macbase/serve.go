package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/fx/analyzerfx"
	"github.com/macbase/macbase/fx/archivefx"
	"github.com/macbase/macbase/internal/config"
	"github.com/macbase/macbase/internal/server"
	"github.com/macbase/macbase/internal/stats"
	"github.com/macbase/macbase/internal/stats/prometheus"
	"github.com/macbase/macbase/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP and websockets",
	Long: `Serve the analysis API:

  GET  /api/analyze?fen=...&priority=primary|background
  POST /api/parse-pgn   {"pgn": "..."}
  GET  /ws/analyze      send positions, receive evaluations of the latest one
  GET  /api/games/{id}  move tree of an archived game (/pgn for the text)
  GET  /metrics         Prometheus metrics

Each websocket connection gets its own engine for as long as it stays open.

Examples:
  macbase serve --addr :8080 --engine /usr/games/stockfish`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("engine", macbase.DefaultEnginePath, "UCI engine binary")
	addArchiveFlags(serveCmd)
	serveCmd.Flags().StringSlice("allowed-origin", nil, "extra websocket origin to accept (repeatable, * for any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	bindings := map[string]string{
		"server.addr":            "addr",
		"engine.path":            "engine",
		"server.allowed_origins": "allowed-origin",
	}
	for key, flag := range archiveFlags {
		bindings[key] = flag
	}
	cfg, err := loadConfig(cmd, bindings)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(logger, cfg.Engine, cfg.Server, cfg.Archive),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			newPrometheusCollector,
			func(c *prometheus.Collector) stats.Collector { return c },
			newServer,
		),
		analyzerfx.Module,
		archivefx.Module,
		fx.Invoke(registerHTTPServer),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newPrometheusCollector() *prometheus.Collector {
	return prometheus.New(promclient.NewRegistry())
}

func newServer(a *macbase.Analyzer, s store.Store, c *prometheus.Collector, cfg config.Server, logger *zap.Logger) *server.Server {
	return server.New(a,
		server.WithArchive(s),
		server.WithStats(c),
		server.WithMetricsHandler(c.Handler()),
		server.WithAllowedOrigins(cfg.AllowedOrigins),
		server.WithLogger(logger),
	)
}

// registerHTTPServer binds the listener on start and shuts the server down on
// stop. Websocket sessions are hijacked connections that Shutdown does not
// track, so they are ended through the base context.
func registerHTTPServer(lc fx.Lifecycle, sd fx.Shutdowner, h *server.Server, cfg config.Server, logger *zap.Logger) {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return base },
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			logger.Info("listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", zap.Error(err))
					sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			ctx, done := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer done()
			return srv.Shutdown(ctx)
		},
	})
}
