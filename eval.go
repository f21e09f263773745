package macbase

import (
	"strconv"

	"github.com/macbase/macbase/internal/oracle"
	"github.com/macbase/macbase/internal/position"
)

// ScoreType distinguishes centipawn scores from forced-mate counts.
type ScoreType string

const (
	// ScoreCentipawn is a material-valued score in hundredths of a pawn.
	ScoreCentipawn ScoreType = "cp"

	// ScoreMate is a forced mate in Value moves.
	ScoreMate ScoreType = "mate"
)

// Score is an evaluation from White's perspective: positive values favor
// White whoever is to move.
type Score struct {
	Type  ScoreType `json:"type"`
	Value int       `json:"value"`
}

// IsMate reports whether the score is a forced mate.
func (s Score) IsMate() bool {
	return s.Type == ScoreMate
}

// String returns a human-readable score.
// Examples: "+1.25", "-0.50", "#3", "#-5"
func (s Score) String() string {
	if s.IsMate() {
		return "#" + strconv.Itoa(s.Value)
	}
	cp := s.Value
	sign := "+"
	if cp < 0 {
		sign = "-"
		cp = -cp
	}
	whole := cp / 100
	frac := cp % 100
	if frac < 10 {
		return sign + strconv.Itoa(whole) + ".0" + strconv.Itoa(frac)
	}
	return sign + strconv.Itoa(whole) + "." + strconv.Itoa(frac)
}

// Candidate is one ranked move. Exactly one of Centipawn and Mate is set.
//
// The capitalized wire names are the ones the dashboard reads.
type Candidate struct {
	// Move is the move in UCI coordinate notation (e2e4, e7e8q).
	Move string `json:"Move"`

	// SAN is the move in standard algebraic notation, when it can be derived.
	SAN string `json:"SAN,omitempty"`

	// Centipawn is the score of the line from White's perspective.
	// Nil if the line is a forced mate.
	Centipawn *int `json:"Centipawn"`

	// Mate is the number of moves to mate. Positive values mean White
	// delivers mate. Nil if there is no forced mate.
	Mate *int `json:"Mate"`

	// PV is the principal variation in UCI notation.
	PV []string `json:"PV,omitempty"`
}

// Score returns the candidate's score.
func (c Candidate) Score() Score {
	if c.Mate != nil {
		return Score{Type: ScoreMate, Value: *c.Mate}
	}
	if c.Centipawn != nil {
		return Score{Type: ScoreCentipawn, Value: *c.Centipawn}
	}
	return Score{Type: ScoreCentipawn}
}

// Evaluation is the analysis of one position.
type Evaluation struct {
	// FEN is the position as it was requested.
	FEN string `json:"fen"`

	// Score is the evaluation of the best line, or 0 cp when the position
	// has no legal moves.
	Score Score `json:"eval"`

	// Candidates are ranked best first.
	Candidates []Candidate `json:"top_moves"`

	// BestMove is the first candidate's move in UCI notation, empty when
	// there are no candidates.
	BestMove string `json:"best_move,omitempty"`

	// Turn is the side to move, "w" or "b".
	Turn string `json:"turn"`

	// Depth is the search depth reached.
	Depth int `json:"depth,omitempty"`
}

// BestCandidate returns the best candidate, or nil if none available.
func (e *Evaluation) BestCandidate() *Candidate {
	if len(e.Candidates) == 0 {
		return nil
	}
	return &e.Candidates[0]
}

// newEvaluation converts a search result, reported relative to the side to
// move, into an Evaluation from White's perspective. Every score, mate
// counts included, is negated when Black is to move.
func newEvaluation(fen string, a *oracle.Analysis) *Evaluation {
	turn := turnOf(fen)
	flip := turn == position.Black

	e := &Evaluation{
		FEN:        fen,
		Score:      Score{Type: ScoreCentipawn},
		Candidates: make([]Candidate, 0, len(a.Lines)),
		Turn:       turn,
		Depth:      a.Depth,
	}

	for _, l := range a.Lines {
		s := l.Score
		if flip {
			s = s.Negate()
		}
		c := Candidate{
			Move: l.Move,
			PV:   l.PV,
		}
		if san, err := position.UCIToSAN(fen, l.Move); err == nil {
			c.SAN = san
		}
		v := s.Value
		if s.Kind == oracle.Mate {
			c.Mate = &v
		} else {
			c.Centipawn = &v
		}
		e.Candidates = append(e.Candidates, c)
	}

	if best := e.BestCandidate(); best != nil {
		e.Score = best.Score()
		e.BestMove = best.Move
	}
	return e
}

// turnOf reads the side-to-move field, defaulting to White when the
// descriptor has none.
func turnOf(fen string) string {
	if side, err := position.SideToMove(fen); err == nil && side == position.Black {
		return position.Black
	}
	return position.White
}
