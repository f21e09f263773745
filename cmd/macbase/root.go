package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/config"
)

var (
	// Global flags.
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "macbase",
	Short: "Chess game parsing and engine analysis",
	Long: `Macbase parses annotated PGN games into move trees and evaluates
positions with a UCI engine such as Stockfish.

Scores are always reported from White's perspective.

Examples:
  # Show the mainline, comments and variations of a game
  macbase parse game.pgn

  # Evaluate a position
  macbase analyze "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"

  # Serve the HTTP and websocket API
  macbase serve --addr :8080

  # Import a multi-game file into the archive and show one game
  macbase import twic1500.pgn
  macbase show 42`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./macbase.yaml or ~/.config/macbase/macbase.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig reads the configuration with the given key-to-flag bindings of
// cmd applied on top.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	bindings := config.Bindings{}
	for key, name := range flags {
		bindings[key] = cmd.Flags().Lookup(name)
	}
	return config.Load(configPath, bindings)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
