package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/archive"
)

var parseCmd = &cobra.Command{
	Use:   "parse [FILE]",
	Short: "Parse a PGN game into its mainline, comments and variations",
	Long: `Parse one game and print the views derived from its move tree: the
mainline, the comment on each position and the side variations branching
from each position.

The game is read from FILE, or from standard input when FILE is "-" or
missing. When the input holds several games, --game selects one.

Examples:
  macbase parse game.pgn
  macbase parse --game 3 --json twic1500.pgn
  cat game.pgn | macbase parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var (
	parseJSON bool
	parseGame int
)

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output the tree views as JSON")
	parseCmd.Flags().IntVar(&parseGame, "game", 1, "1-based index of the game to parse")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	text, err := nthGame(r, parseGame)
	if err != nil {
		return err
	}

	tree := macbase.ParsePGN(text)
	if parseJSON {
		return printJSON(cmd.OutOrStdout(), tree)
	}
	printTree(cmd.OutOrStdout(), tree)
	return nil
}

// nthGame returns the n-th game (1-based) of a PGN stream.
func nthGame(r io.Reader, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("invalid game index %d", n)
	}
	sc := archive.NewScanner(r)
	for sc.Scan() {
		if sc.Count() == n {
			return sc.Game(), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading PGN: %w", err)
	}
	return "", fmt.Errorf("input has %d games, no game %d", sc.Count(), n)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTree writes the tree views in a compact text form.
func printTree(w io.Writer, t *macbase.Tree) {
	if t.Empty() {
		fmt.Fprintln(w, "No moves.")
		return
	}

	for _, k := range sortedKeys(t.Tags) {
		fmt.Fprintf(w, "[%s %q]\n", k, t.Tags[k])
	}
	if len(t.Tags) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, formatMainline(t.Moves, t.FENs))

	if len(t.Comments) > 0 {
		fmt.Fprintln(w, "\nComments:")
		for _, fen := range sortedKeys(t.Comments) {
			fmt.Fprintf(w, "  %s\n    %s\n", fen, t.Comments[fen])
		}
	}
	if len(t.Variations) > 0 {
		fmt.Fprintln(w, "\nVariations:")
		for _, fen := range sortedKeys(t.Variations) {
			sans := make([]string, 0, len(t.Variations[fen]))
			for _, v := range t.Variations[fen] {
				sans = append(sans, v.SAN)
			}
			fmt.Fprintf(w, "  %s\n    %s\n", fen, strings.Join(sans, ", "))
		}
	}
}

// formatMainline numbers the mainline moves using the move counters of the
// positions after them.
func formatMainline(moves, fens []string) string {
	var b strings.Builder
	for i, san := range moves {
		fields := strings.Fields(fens[i])
		if len(fields) < 6 {
			b.WriteString(san + " ")
			continue
		}
		number, _ := strconv.Atoi(fields[5])
		if fields[1] == "b" {
			// White just moved.
			fmt.Fprintf(&b, "%d. %s ", number, san)
			continue
		}
		if i == 0 {
			fmt.Fprintf(&b, "%d... ", number-1)
		}
		b.WriteString(san + " ")
	}
	return strings.TrimSpace(b.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
