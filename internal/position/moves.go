package position

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// ErrIllegalMove indicates a move cannot be played from the given position.
var ErrIllegalMove = errors.New("position: illegal move")

// StartFEN is the descriptor of the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Start returns the standard initial position.
func Start() *chess.Position {
	return chess.StartingPosition()
}

// FromFEN decodes a descriptor into a position the rules engine can play on.
func FromFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// Descriptor returns the canonical string encoding of pos.
func Descriptor(pos *chess.Position) string {
	return pos.String()
}

// zeroCastling rewrites castling written with digits. The queenside form
// must be matched first.
var zeroCastling = strings.NewReplacer("0-0-0", "O-O-O", "0-0", "O-O")

// PlaySAN plays a move written in standard algebraic notation.
// It returns the canonical SAN of the move (as the rules engine renders it,
// relative to pos) and the resulting position.
func PlaySAN(pos *chess.Position, san string) (string, *chess.Position, error) {
	text := zeroCastling.Replace(san)
	bare := strings.TrimRight(text, "+#")

	// PGN in the wild omits or misplaces check markers; the notation decoder
	// compares against its own rendering, so try each marker variant.
	var err error
	for _, candidate := range []string{text, bare, bare + "+", bare + "#"} {
		var m *chess.Move
		m, err = chess.AlgebraicNotation{}.Decode(pos, candidate)
		if err == nil {
			return chess.AlgebraicNotation{}.Encode(pos, m), pos.Update(m), nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s: %v", ErrIllegalMove, san, err)
}

// UCIToSAN converts a move in UCI coordinate notation (e2e4, e7e8q) played
// from the position described by fen into standard algebraic notation.
func UCIToSAN(fen, uci string) (string, error) {
	pos, err := FromFEN(fen)
	if err != nil {
		return "", err
	}
	m, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return chess.AlgebraicNotation{}.Encode(pos, m), nil
}
