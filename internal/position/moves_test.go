package position

import (
	"errors"
	"testing"
)

func TestPlaySAN(t *testing.T) {
	san, next, err := PlaySAN(Start(), "Nf3")
	if err != nil {
		t.Fatalf("PlaySAN() error = %v", err)
	}
	if san != "Nf3" {
		t.Errorf("PlaySAN() san = %q, want %q", san, "Nf3")
	}
	want := "rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b KQkq - 1 1"
	if got := Descriptor(next); got != want {
		t.Errorf("Descriptor() = %q, want %q", got, want)
	}
}

func TestPlaySAN_Illegal(t *testing.T) {
	tests := []string{"Ke2", "e5", "Qh5", "xyz"}
	for _, san := range tests {
		t.Run(san, func(t *testing.T) {
			_, _, err := PlaySAN(Start(), san)
			if !errors.Is(err, ErrIllegalMove) {
				t.Errorf("PlaySAN(%q) error = %v, want ErrIllegalMove", san, err)
			}
		})
	}
}

func TestPlaySAN_Castling(t *testing.T) {
	pos, err := FromFEN("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("FromFEN() error = %v", err)
	}
	tests := []struct {
		san  string
		want string
	}{
		{"O-O", "O-O"},
		{"0-0", "O-O"},
		{"O-O-O", "O-O-O"},
		{"0-0-0", "O-O-O"},
		{"0-0-0+", "O-O-O"},
	}
	for _, tt := range tests {
		t.Run(tt.san, func(t *testing.T) {
			got, _, err := PlaySAN(pos, tt.san)
			if err != nil {
				t.Fatalf("PlaySAN(%q) error = %v", tt.san, err)
			}
			if got != tt.want {
				t.Errorf("PlaySAN(%q) = %q, want %q", tt.san, got, tt.want)
			}
		})
	}
}

func TestUCIToSAN(t *testing.T) {
	got, err := UCIToSAN(StartFEN, "g1f3")
	if err != nil {
		t.Fatalf("UCIToSAN() error = %v", err)
	}
	if got != "Nf3" {
		t.Errorf("UCIToSAN() = %q, want %q", got, "Nf3")
	}

	if _, err := UCIToSAN("bogus", "e2e4"); !errors.Is(err, ErrInvalidFEN) {
		t.Errorf("UCIToSAN(bogus fen) error = %v, want ErrInvalidFEN", err)
	}
}
