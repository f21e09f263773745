package memoracle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/macbase/macbase/internal/oracle"
)

func TestOracle_Analyze(t *testing.T) {
	scripted := &oracle.Analysis{
		Depth:    10,
		BestMove: "e2e4",
		Lines: []oracle.Line{
			{Move: "e2e4", Score: oracle.Score{Kind: oracle.Centipawn, Value: 30}, PV: []string{"e2e4"}},
			{Move: "d2d4", Score: oracle.Score{Kind: oracle.Centipawn, Value: 25}, PV: []string{"d2d4"}},
			{Move: "c2c4", Score: oracle.Score{Kind: oracle.Centipawn, Value: 20}, PV: []string{"c2c4"}},
		},
	}
	book := NewBook().Set("start", scripted)
	o := book.New(oracle.Config{MultiPV: 2})

	got, err := o.Analyze("start")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := &oracle.Analysis{Depth: 10, BestMove: "e2e4", Lines: scripted.Lines[:2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}

	got.Lines[0].PV[0] = "a2a3"
	if scripted.Lines[0].PV[0] != "e2e4" {
		t.Error("Analyze() result aliases the book")
	}

	unknown, err := o.Analyze("elsewhere")
	if err != nil {
		t.Fatalf("Analyze(unknown) error = %v", err)
	}
	if len(unknown.Lines) != 1 || unknown.Lines[0].Score.Value != 0 {
		t.Errorf("Analyze(unknown) = %+v, want one zero line", unknown)
	}
}

func TestOracle_Failures(t *testing.T) {
	boom := errors.New("boom")
	book := NewBook().Fail("bad", boom)
	o := book.New(oracle.Config{})

	if _, err := o.Analyze("bad"); !errors.Is(err, boom) {
		t.Errorf("Analyze() error = %v, want %v", err, boom)
	}
	book.Clear("bad")
	if _, err := o.Analyze("bad"); err != nil {
		t.Errorf("Analyze() after Clear error = %v", err)
	}
}

func TestOracle_Close(t *testing.T) {
	book := NewBook()
	f := book.Factory()
	o, err := f(oracle.Config{})
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := o.Close(); !errors.Is(err, oracle.ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := o.Analyze("x"); !errors.Is(err, oracle.ErrClosed) {
		t.Errorf("Analyze() after Close error = %v, want ErrClosed", err)
	}
	if book.Created() != 1 || book.Closed() != 1 {
		t.Errorf("Created() = %d, Closed() = %d; want 1, 1", book.Created(), book.Closed())
	}
}
