package uci

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/macbase/macbase/internal/oracle"
)

const fakeEnv = "MACBASE_FAKE_UCI_ENGINE"

// TestFakeEngine is not a real test. It is the body of the engine process
// started by newFake, speaking just enough UCI for the tests below.
func TestFakeEngine(t *testing.T) {
	if os.Getenv(fakeEnv) != "1" {
		t.Skip("helper process")
	}

	out := bufio.NewWriter(os.Stdout)
	say := func(lines ...string) {
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		out.Flush()
	}

	var fen string
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		cmd := in.Text()
		switch {
		case cmd == "uci":
			say("id name fake", "option name MultiPV type spin default 1 min 1 max 500", "uciok")
		case cmd == "isready":
			say("readyok")
		case strings.HasPrefix(cmd, "position fen "):
			fen = strings.TrimPrefix(cmd, "position fen ")
		case strings.HasPrefix(cmd, "go"):
			switch fen {
			case "crash":
				os.Exit(3)
			case "mated":
				say("info depth 0 score mate 0", "bestmove (none)")
			default:
				say(
					"info string NNUE enabled",
					"info depth 1 multipv 1 score cp 10 pv e2e4",
					"info depth 2 seldepth 3 multipv 1 score cp 35 nodes 100 pv e2e4 e7e5",
					"info depth 2 multipv 2 score mate -4 nodes 120 pv d2d4 d7d5",
					"info depth 3 multipv 1 score cp 40 lowerbound pv g1f3",
					"bestmove e2e4 ponder e7e5",
				)
			}
		case cmd == "quit":
			os.Exit(0)
		}
	}
	os.Exit(0)
}

func newFake(t *testing.T) *Engine {
	t.Helper()
	e, err := New(os.Args[0], oracle.Config{Depth: 2, Threads: 1, HashMB: 16, MultiPV: 2},
		WithArgs("-test.run=^TestFakeEngine$"),
		WithEnv(fakeEnv+"=1"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestEngine_Analyze(t *testing.T) {
	e := newFake(t)
	defer e.Close()

	got, err := e.Analyze("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := &oracle.Analysis{
		Depth:    2,
		BestMove: "e2e4",
		Lines: []oracle.Line{
			{Move: "e2e4", Score: oracle.Score{Kind: oracle.Centipawn, Value: 35}, PV: []string{"e2e4", "e7e5"}},
			{Move: "d2d4", Score: oracle.Score{Kind: oracle.Mate, Value: -4}, PV: []string{"d2d4", "d7d5"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}

	// The engine keeps serving after a search.
	if _, err := e.Analyze("8/8/8/8/8/8/8/K6k w - - 0 1"); err != nil {
		t.Errorf("second Analyze() error = %v", err)
	}
}

func TestEngine_NoLegalMoves(t *testing.T) {
	e := newFake(t)
	defer e.Close()

	got, err := e.Analyze("mated")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(got.Lines) != 0 || got.BestMove != "" {
		t.Errorf("Analyze() = %+v, want no lines and no best move", got)
	}
}

func TestEngine_Crash(t *testing.T) {
	e := newFake(t)
	defer e.Close()

	if _, err := e.Analyze("crash"); !errors.Is(err, oracle.ErrExited) {
		t.Errorf("Analyze() error = %v, want ErrExited", err)
	}
}

func TestEngine_Close(t *testing.T) {
	e := newFake(t)
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); !errors.Is(err, oracle.ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := e.Analyze("crash"); !errors.Is(err, oracle.ErrClosed) {
		t.Errorf("Analyze() after Close error = %v, want ErrClosed", err)
	}
}

func TestNew_MissingBinary(t *testing.T) {
	if _, err := New("/nonexistent/engine", oracle.Config{}); err == nil {
		t.Error("New() error = nil, want error")
	}
}

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   info
		wantOK bool
	}{
		{
			name:   "centipawn with multipv",
			line:   "info depth 12 seldepth 18 multipv 2 score cp -23 nodes 4000 nps 1000 pv g8f6 c2c4",
			want:   info{rank: 2, depth: 12, line: oracle.Line{Move: "g8f6", Score: oracle.Score{Kind: oracle.Centipawn, Value: -23}, PV: []string{"g8f6", "c2c4"}}},
			wantOK: true,
		},
		{
			name:   "mate without multipv defaults to first rank",
			line:   "info depth 5 score mate 3 pv h5f7",
			want:   info{rank: 1, depth: 5, line: oracle.Line{Move: "h5f7", Score: oracle.Score{Kind: oracle.Mate, Value: 3}, PV: []string{"h5f7"}}},
			wantOK: true,
		},
		{name: "upper bound", line: "info depth 5 score cp 20 upperbound pv e2e4"},
		{name: "no pv", line: "info depth 5 score cp 20 nodes 10"},
		{name: "currmove", line: "info depth 5 currmove e2e4 currmovenumber 1"},
		{name: "string", line: "info string score cp 20 pv e2e4"},
		{name: "not info", line: "readyok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseInfo(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("parseInfo() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(info{})); diff != "" {
				t.Errorf("parseInfo() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line     string
		wantMove string
		wantOK   bool
	}{
		{"bestmove e2e4 ponder e7e5", "e2e4", true},
		{"bestmove e7e8q", "e7e8q", true},
		{"bestmove (none)", "", true},
		{"info depth 1", "", false},
	}
	for _, tt := range tests {
		move, ok := parseBestMove(tt.line)
		if move != tt.wantMove || ok != tt.wantOK {
			t.Errorf("parseBestMove(%q) = %q, %v; want %q, %v", tt.line, move, ok, tt.wantMove, tt.wantOK)
		}
	}
}
