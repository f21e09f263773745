// Package position provides FEN (Forsyth-Edwards Notation) utilities and the
// move arithmetic that links positions together.
//
// A position descriptor is the full six-field FEN produced by the rules engine.
// Two descriptors are equal iff the encoded board states are equal.
package position

import (
	"errors"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("position: invalid FEN notation")

// Sides to move as they appear in the second FEN field.
const (
	White = "w"
	Black = "b"
)

// Normalize returns a normalized FEN string suitable for comparisons that
// ignore move counters.
// It extracts only the position, side to move, castling rights, and en passant square,
// ignoring the halfmove clock and fullmove number.
func Normalize(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", ErrInvalidFEN
	}

	if !isValidPiecePlacement(parts[0]) {
		return "", ErrInvalidFEN
	}

	if parts[1] != White && parts[1] != Black {
		return "", ErrInvalidFEN
	}

	return strings.Join(parts[:4], " "), nil
}

// SideToMove returns "w" or "b" from a FEN string.
func SideToMove(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return "", ErrInvalidFEN
	}
	if parts[1] != White && parts[1] != Black {
		return "", ErrInvalidFEN
	}
	return parts[1], nil
}

// SecondToMove reports whether the second player (Black) is to move.
func SecondToMove(fen string) (bool, error) {
	side, err := SideToMove(fen)
	if err != nil {
		return false, err
	}
	return side == Black, nil
}

// Validate checks the FEN syntax and that the rules engine accepts it.
func Validate(fen string) error {
	if _, err := Normalize(fen); err != nil {
		return err
	}
	if _, err := FromFEN(fen); err != nil {
		return err
	}
	return nil
}

// isValidPiecePlacement validates the piece placement part of a FEN.
func isValidPiecePlacement(placement string) bool {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return false
	}

	for _, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case ch == 'P', ch == 'N', ch == 'B', ch == 'R', ch == 'Q', ch == 'K',
				ch == 'p', ch == 'n', ch == 'b', ch == 'r', ch == 'q', ch == 'k':
				squares++
			default:
				return false
			}
		}
		if squares != 8 {
			return false
		}
	}

	return true
}
