package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/benchmark/analysis"
	"github.com/macbase/macbase/benchmark/load"
	"github.com/macbase/macbase/benchmark/pgn"
	"github.com/macbase/macbase/benchmark/reporting"
	"github.com/macbase/macbase/internal/archive"
)

var benchCmd = &cobra.Command{
	Use:   "bench FILE|URL",
	Short: "Measure engine latency on the positions of real games",
	Long: `Evaluate the mainline positions of PGN games on the primary engine, first
alone and then while the background engine is kept busy, and compare the two
latency distributions.

Examples:
  # Quick run over the first 5 games
  macbase bench --games 5 twic1500.pgn

  # Full markdown report
  macbase bench --format markdown --output report.md twic1500.pgn.zst`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

var (
	benchGames     int
	benchPositions int
	benchFormat    string
	benchOutput    string
)

func init() {
	benchCmd.Flags().String("engine", macbase.DefaultEnginePath, "UCI engine binary")
	benchCmd.Flags().IntVar(&benchGames, "games", 10, "number of games to read (0 for all)")
	benchCmd.Flags().IntVar(&benchPositions, "positions", 100, "maximum positions to evaluate per run (0 for all)")
	benchCmd.Flags().StringVarP(&benchFormat, "format", "f", "text", "output format: text or markdown")
	benchCmd.Flags().StringVarP(&benchOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFormat != "text" && benchFormat != "markdown" {
		return fmt.Errorf("unknown format %q", benchFormat)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, map[string]string{"engine.path": "engine"})
	if err != nil {
		return err
	}

	src, err := archive.OpenSource(ctx, args[0])
	if err != nil {
		return err
	}
	positions, err := pgn.ExtractFENs(src, benchGames)
	src.Close()
	if err != nil {
		return fmt.Errorf("reading games: %w", err)
	}
	fens := positions.FENs
	if benchPositions > 0 && len(fens) > benchPositions {
		fens = fens[:benchPositions]
	}
	if len(fens) == 0 {
		return errors.New("no positions found")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := macbase.New(
		macbase.WithEnginePath(cfg.Engine.Path),
		macbase.WithPrimaryConfig(cfg.Engine.Primary),
		macbase.WithBackgroundConfig(cfg.Engine.Background),
		macbase.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}
	defer a.Close()

	status := cmd.ErrOrStderr()
	fmt.Fprintf(status, "Benchmarking %d positions from %d games\n", len(fens), positions.Games)

	// Warm up both engines so startup is not measured.
	for _, p := range []macbase.Priority{macbase.PriorityPrimary, macbase.PriorityBackground} {
		if _, err := a.Evaluate(ctx, fens[0], p); err != nil {
			return fmt.Errorf("warming up %s engine: %w", p, err)
		}
	}

	fmt.Fprintln(status, "  [1/2] primary alone...")
	alone, err := load.Measure(ctx, a, fens, macbase.PriorityPrimary)
	if err != nil {
		return err
	}
	fmt.Fprintln(status, "  [2/2] primary under background load...")
	loaded, background, err := load.UnderLoad(ctx, a, fens, macbase.PriorityPrimary, fens, macbase.PriorityBackground)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if benchOutput != "" {
		f, err := os.Create(benchOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	rows := []reporting.Row{
		{Name: "primary", Latency: analysis.Describe(alone.Latencies), Errors: alone.Errors},
		{Name: "primary under load", Latency: analysis.Describe(loaded.Latencies), Errors: loaded.Errors},
		{Name: "background load", Latency: analysis.Describe(background.Latencies), Errors: background.Errors},
	}
	comp := analysis.Compare("primary", alone.Latencies, "primary under load", loaded.Latencies)

	if benchFormat == "markdown" {
		r := reporting.NewMarkdownReport(out)
		r.WriteHeader("Engine Latency Report", time.Now())
		r.WriteMethodology(cfg.Engine.Path, positions.Games, len(fens))
		r.WriteSummaryTable(rows)
		r.WriteComparison(comp)
		r.WriteDistributionChart("primary", alone.Latencies)
		r.WriteDistributionChart("primary under load", loaded.Latencies)
		r.WriteFooter()
		return nil
	}
	printBenchText(out, rows, comp)
	return nil
}

func printBenchText(w io.Writer, rows []reporting.Row, comp *analysis.Comparison) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %6s %10s %10s %10s %10s %7s\n", "Run", "N", "Mean", "Median", "P90", "P99", "Errors")
	fmt.Fprintln(w, "------------------------------------------------------------------------------")
	for _, row := range rows {
		l := row.Latency
		fmt.Fprintf(w, "%-20s %6d %10s %10s %10s %10s %7d\n", row.Name, l.N,
			seconds(l.Mean), seconds(l.Median), seconds(l.P90), seconds(l.P99), row.Errors)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Mann-Whitney p=%.4f, Cohen's d=%.2f (%s)\n",
		comp.RankSum.PValue, comp.Effect.CohensD, comp.Effect.Interpretation)
}

func seconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(100 * time.Microsecond).String()
}
