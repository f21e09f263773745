package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/macbase/macbase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [FEN]",
	Short: "Evaluate a chess position with the engine",
	Long: `Evaluate a position given in FEN notation and print the score and the
top candidate moves, all from White's perspective.

Examples:
  # After 1.e4
  macbase analyze "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

  # Background priority, custom engine, JSON output
  macbase analyze --priority background --engine /usr/games/stockfish --json "<FEN>"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeJSON     bool
	analyzeTiming   bool
	analyzePriority string
)

func init() {
	analyzeCmd.Flags().String("engine", macbase.DefaultEnginePath, "UCI engine binary")
	analyzeCmd.Flags().Int("depth", 0, "search depth (default from config)")
	analyzeCmd.Flags().StringVar(&analyzePriority, "priority", "primary", "engine priority: primary or background")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeTiming, "timing", false, "show evaluation timing")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"engine.path": "engine"})
	if err != nil {
		return err
	}
	if depth, _ := cmd.Flags().GetInt("depth"); depth > 0 {
		cfg.Engine.Primary.Depth = depth
		cfg.Engine.Background.Depth = depth
	}

	p, err := macbase.ParsePriority(analyzePriority)
	if err != nil {
		return err
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	eval, err := a.Evaluate(ctx, args[0], p)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	elapsed := time.Since(start)

	if analyzeJSON {
		return printJSON(cmd.OutOrStdout(), eval)
	}
	printEvalText(cmd.OutOrStdout(), eval, elapsed)
	return nil
}

func printEvalText(w io.Writer, eval *macbase.Evaluation, elapsed time.Duration) {
	fmt.Fprintf(w, "FEN:   %s\n", eval.FEN)
	fmt.Fprintf(w, "Score: %s\n", eval.Score)
	if eval.Depth > 0 {
		fmt.Fprintf(w, "Depth: %d\n", eval.Depth)
	}
	if best := eval.BestCandidate(); best != nil {
		fmt.Fprintf(w, "Best:  %s\n", moveName(*best))
	} else {
		fmt.Fprintln(w, "Best:  none (no legal moves)")
	}
	for i, c := range eval.Candidates {
		fmt.Fprintf(w, "%d. %-8s %-7s %s\n", i+1, moveName(c), c.Score(), strings.Join(c.PV, " "))
	}
	if analyzeTiming {
		fmt.Fprintf(w, "Time:  %s\n", elapsed)
	}
}

func moveName(c macbase.Candidate) string {
	if c.SAN != "" {
		return c.SAN
	}
	return c.Move
}
