package load

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/oracle/memoracle"
	"github.com/macbase/macbase/internal/position"
)

const afterE4 = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"

func newAnalyzer(t *testing.T, book *memoracle.Book) *macbase.Analyzer {
	t.Helper()
	a, err := macbase.New(macbase.WithOracleFactory(book.Factory()))
	if err != nil {
		t.Fatalf("macbase.New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestMeasure(t *testing.T) {
	book := memoracle.NewBook().Fail(afterE4, errors.New("engine crashed"))
	a := newAnalyzer(t, book)

	fens := []string{position.StartFEN, afterE4, position.StartFEN}
	res, err := Measure(context.Background(), a, fens, macbase.PriorityPrimary)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if len(res.Latencies) != 2 || res.Errors != 1 {
		t.Errorf("Latencies = %d, Errors = %d; want 2, 1", len(res.Latencies), res.Errors)
	}
	if res.Priority != macbase.PriorityPrimary || res.Elapsed <= 0 {
		t.Errorf("Result = %+v", res)
	}
}

func TestMeasure_Canceled(t *testing.T) {
	a := newAnalyzer(t, memoracle.NewBook())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Measure(ctx, a, []string{position.StartFEN}, macbase.PriorityPrimary); !errors.Is(err, context.Canceled) {
		t.Errorf("Measure() error = %v, want context.Canceled", err)
	}
}

func TestUnderLoad(t *testing.T) {
	book := memoracle.NewBook().OnAnalyze(func(string) { time.Sleep(2 * time.Millisecond) })
	a := newAnalyzer(t, book)

	fens := []string{position.StartFEN, afterE4, position.StartFEN, afterE4, position.StartFEN}
	measured, load, err := UnderLoad(context.Background(), a,
		fens, macbase.PriorityPrimary,
		[]string{afterE4}, macbase.PriorityBackground)
	if err != nil {
		t.Fatalf("UnderLoad() error = %v", err)
	}
	if len(measured.Latencies) != len(fens) || measured.Errors != 0 {
		t.Errorf("measured Latencies = %d, Errors = %d; want %d, 0", len(measured.Latencies), measured.Errors, len(fens))
	}
	if load.Priority != macbase.PriorityBackground || load.Errors != 0 {
		t.Errorf("load = %+v", load)
	}
}

func TestUnderLoad_NoLoad(t *testing.T) {
	a := newAnalyzer(t, memoracle.NewBook())
	if _, _, err := UnderLoad(context.Background(), a, nil, macbase.PriorityPrimary, nil, macbase.PriorityBackground); err == nil {
		t.Error("UnderLoad() error = nil, want error")
	}
}
