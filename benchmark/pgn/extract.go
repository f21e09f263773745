// Package pgn extracts the positions of PGN games for engine benchmarks.
package pgn

import (
	"io"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/archive"
)

// Positions holds the mainline positions of a set of games.
type Positions struct {
	// Games is the number of games with at least one move.
	Games int

	// FENs are the unique mainline positions in order of first appearance.
	FENs []string
}

// ExtractFENs reads up to maxGames games from r (all when maxGames <= 0) and
// collects their unique mainline positions.
func ExtractFENs(r io.Reader, maxGames int) (*Positions, error) {
	p := &Positions{}
	seen := make(map[string]struct{})

	sc := archive.NewScanner(r)
	for sc.Scan() {
		tree := macbase.ParsePGN(sc.Game())
		if tree.Empty() {
			continue
		}
		p.Games++
		for _, fen := range tree.FENs {
			if _, ok := seen[fen]; !ok {
				seen[fen] = struct{}{}
				p.FENs = append(p.FENs, fen)
			}
		}
		if maxGames > 0 && p.Games >= maxGames {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
