// Package uci drives an external chess engine over the Universal Chess
// Interface line protocol.
//
// Each Engine owns one engine process. The process is started and configured
// by New and stays alive until Close. Engine is not safe for concurrent use.
package uci

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/oracle"
)

// quitGrace is how long Close waits for the process to exit after "quit".
const quitGrace = 2 * time.Second

// Engine is an oracle.Oracle backed by a UCI engine process.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  *bufio.Scanner
	cfg    oracle.Config
	logger *zap.Logger
	closed atomic.Bool
}

// Compile-time check that Engine implements oracle.Oracle.
var _ oracle.Oracle = (*Engine)(nil)

// Option configures an Engine.
type Option interface {
	apply(*options)
}

type options struct {
	args   []string
	env    []string
	logger *zap.Logger
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithArgs sets extra command-line arguments for the engine binary.
func WithArgs(args ...string) Option {
	return optionFunc(func(o *options) {
		o.args = args
	})
}

// WithEnv adds environment variables to the engine process.
func WithEnv(env ...string) Option {
	return optionFunc(func(o *options) {
		o.env = append(o.env, env...)
	})
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// New starts the engine binary at path and configures it with cfg.
func New(path string, cfg oracle.Config, opts ...Option) (*Engine, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt.apply(&o)
	}

	cmd := exec.Command(path, o.args...)
	if len(o.env) > 0 {
		cmd.Env = append(os.Environ(), o.env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", path, err)
	}

	e := &Engine{
		cmd:    cmd,
		stdin:  stdin,
		lines:  bufio.NewScanner(stdout),
		cfg:    cfg,
		logger: o.logger,
	}
	if err := e.handshake(); err != nil {
		e.kill()
		return nil, err
	}

	e.logger.Debug("engine started",
		zap.String("path", path),
		zap.Int("pid", cmd.Process.Pid),
		zap.Stringer("config", cfg),
	)
	return e, nil
}

// Factory returns an oracle.Factory starting engines from path.
func Factory(path string, opts ...Option) oracle.Factory {
	return func(cfg oracle.Config) (oracle.Oracle, error) {
		return New(path, cfg, opts...)
	}
}

func (e *Engine) handshake() error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if _, err := e.waitFor("uciok"); err != nil {
		return err
	}

	setopts := []struct {
		name  string
		value int
	}{
		{"Threads", e.cfg.Threads},
		{"Hash", e.cfg.HashMB},
		{"MultiPV", e.cfg.MultiPV},
	}
	for _, so := range setopts {
		if so.value <= 0 {
			continue
		}
		if err := e.send(fmt.Sprintf("setoption name %s value %d", so.name, so.value)); err != nil {
			return err
		}
	}

	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	return e.sync()
}

// sync waits until the engine has processed everything sent so far.
func (e *Engine) sync() error {
	if err := e.send("isready"); err != nil {
		return err
	}
	_, err := e.waitFor("readyok")
	return err
}

// Analyze implements oracle.Oracle.
func (e *Engine) Analyze(fen string) (*oracle.Analysis, error) {
	if e.closed.Load() {
		return nil, oracle.ErrClosed
	}

	if err := e.send("position fen " + fen); err != nil {
		return nil, err
	}
	goCmd := "go infinite"
	if e.cfg.Depth > 0 {
		goCmd = "go depth " + strconv.Itoa(e.cfg.Depth)
	}
	if err := e.send(goCmd); err != nil {
		return nil, err
	}

	byRank := make(map[int]oracle.Line)
	depth := 0
	for {
		line, err := e.readLine()
		if err != nil {
			return nil, err
		}

		if best, ok := parseBestMove(line); ok {
			return collect(byRank, depth, best), nil
		}

		info, ok := parseInfo(line)
		if !ok {
			continue
		}
		if info.depth > depth {
			depth = info.depth
		}
		byRank[info.rank] = info.line
	}
}

// Close implements oracle.Oracle.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return oracle.ErrClosed
	}

	// The process may already be gone; a failed quit only means Wait returns sooner.
	_ = e.send("quit")
	_ = e.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return fmt.Errorf("waiting for engine: %w", err)
		}
		return nil
	case <-time.After(quitGrace):
		e.logger.Warn("engine did not quit, killing", zap.Int("pid", e.cmd.Process.Pid))
		if err := e.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("killing engine: %w", err)
		}
		<-done
		return nil
	}
}

func (e *Engine) kill() {
	e.closed.Store(true)
	_ = e.stdin.Close()
	_ = e.cmd.Process.Kill()
	_ = e.cmd.Wait()
}

func (e *Engine) send(cmd string) error {
	if _, err := io.WriteString(e.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("%w: writing %q: %v", oracle.ErrExited, cmd, err)
	}
	return nil
}

func (e *Engine) readLine() (string, error) {
	if !e.lines.Scan() {
		if err := e.lines.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", oracle.ErrExited, err)
		}
		return "", oracle.ErrExited
	}
	return strings.TrimSpace(e.lines.Text()), nil
}

func (e *Engine) waitFor(token string) (string, error) {
	for {
		line, err := e.readLine()
		if err != nil {
			return "", fmt.Errorf("waiting for %s: %w", token, err)
		}
		if line == token || strings.HasPrefix(line, token+" ") {
			return line, nil
		}
	}
}

// collect orders the latest line reported for each rank.
func collect(byRank map[int]oracle.Line, depth int, best string) *oracle.Analysis {
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	a := &oracle.Analysis{Depth: depth, BestMove: best}
	for _, r := range ranks {
		a.Lines = append(a.Lines, byRank[r])
	}
	return a
}

type info struct {
	rank  int
	depth int
	line  oracle.Line
}

// parseInfo reads an "info" line carrying a score and a principal variation.
// Bound scores and lines without a PV are ignored.
func parseInfo(text string) (info, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != "info" {
		return info{}, false
	}

	in := info{rank: 1}
	var hasScore bool
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				in.depth, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					in.rank = n
				}
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return info{}, false
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return info{}, false
			}
			switch fields[i+1] {
			case "cp":
				in.line.Score = oracle.Score{Kind: oracle.Centipawn, Value: v}
			case "mate":
				in.line.Score = oracle.Score{Kind: oracle.Mate, Value: v}
			default:
				return info{}, false
			}
			hasScore = true
			i += 2
		case "lowerbound", "upperbound":
			return info{}, false
		case "string":
			// The rest of the line is free text.
			i = len(fields)
		case "pv":
			in.line.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}

	if !hasScore || len(in.line.PV) == 0 {
		return info{}, false
	}
	in.line.Move = in.line.PV[0]
	return in, true
}

// parseBestMove reads a "bestmove" line. A "(none)" move, sent when the side
// to move has no legal moves, yields an empty move.
func parseBestMove(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != "bestmove" {
		return "", false
	}
	if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
		return "", true
	}
	return fields[1], true
}
