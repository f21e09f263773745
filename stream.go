package macbase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/mailbox"
	"github.com/macbase/macbase/internal/position"
	"github.com/macbase/macbase/internal/stats"
)

// StreamConn is the transport of a streaming session.
type StreamConn interface {
	// ReadPosition blocks until the peer sends a position descriptor. It
	// returns io.EOF when the peer disconnects normally.
	ReadPosition(ctx context.Context) (string, error)

	// WriteMessage sends one message to the peer.
	WriteMessage(ctx context.Context, msg *StreamMessage) error
}

// StreamMessage is sent once per evaluated position. Exactly one of the
// evaluation fields and Error is set.
type StreamMessage struct {
	FEN      string      `json:"fen"`
	Eval     *Score      `json:"eval,omitempty"`
	TopMoves []Candidate `json:"top_moves,omitempty"`
	BestMove string      `json:"best_move,omitempty"`
	Turn     string      `json:"turn,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func evaluationMessage(e *Evaluation) *StreamMessage {
	score := e.Score
	return &StreamMessage{
		FEN:      e.FEN,
		Eval:     &score,
		TopMoves: e.Candidates,
		BestMove: e.BestMove,
		Turn:     e.Turn,
	}
}

func errorMessage(fen string, err error) *StreamMessage {
	return &StreamMessage{FEN: fen, Error: err.Error()}
}

// Stream serves one streaming connection until the transport ends.
//
// The connection gets its own engine, started on the first position and
// released when Stream returns. Positions are read concurrently with
// evaluation into a single slot, so a position that arrives while a search
// runs replaces any position still waiting; only the latest one is evaluated.
// A position equal to the last one evaluated is skipped. A failed evaluation
// produces an error message and the session continues. Once the peer has
// disconnected no message is written, not even the result of a search that
// was running at the time.
//
// Stream returns nil when the peer disconnects normally or ctx ends, and the
// transport error otherwise.
func (a *Analyzer) Stream(ctx context.Context, conn StreamConn) error {
	if a.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id := a.streams.Add(1)
	a.stats.SetGauge(stats.MetricStreamsActive, a.activeStreams(1))
	logger := a.logger.Named("stream").With(zap.Int64("stream", id))
	logger.Info("stream opened")

	in := newInstance("stream", a.streamCfg, a.factory, a.stats, a.logger)
	defer func() {
		if err := in.close(); err != nil {
			logger.Debug("releasing stream oracle", zap.Error(err))
		}
		a.stats.SetGauge(stats.MetricStreamsActive, a.activeStreams(-1))
		logger.Info("stream closed")
	}()

	box := mailbox.New[string]()
	readErr := make(chan error, 1)
	readDone := make(chan struct{})
	go func() {
		err := a.readPositions(ctx, conn, box)
		readErr <- err
		box.Close()
		close(readDone)
		logger.Debug("stream reader stopped", zap.Error(err))
	}()

	// ended reports whether the peer is gone, in which case nothing more
	// may be written.
	ended := func() bool {
		select {
		case <-readDone:
			return true
		default:
			return ctx.Err() != nil
		}
	}

	var last string
	for {
		fen, err := box.Take(ctx)
		if err != nil {
			return a.endOfStream(ctx, readErr, logger)
		}

		if fen == "" || fen == last {
			a.stats.IncCounter(stats.MetricStreamDebounced, 1)
			continue
		}
		last = fen

		msg := a.streamEvaluate(ctx, in, fen, logger)
		if ended() {
			logger.Debug("dropping result for disconnected peer", zap.String("fen", fen))
			return a.endOfStream(ctx, readErr, logger)
		}
		if err := conn.WriteMessage(ctx, msg); err != nil {
			if ended() {
				return a.endOfStream(ctx, readErr, logger)
			}
			logger.Error("writing stream message", zap.Error(err))
			return fmt.Errorf("writing stream message: %w", err)
		}
		a.stats.IncCounter(stats.MetricStreamMessages, 1)
	}
}

// readPositions moves positions from conn into box until the transport
// ends, and returns the error that ended it.
func (a *Analyzer) readPositions(ctx context.Context, conn StreamConn, box *mailbox.Mailbox[string]) error {
	for {
		fen, err := conn.ReadPosition(ctx)
		if err != nil {
			return err
		}
		if box.Put(strings.TrimSpace(fen)) {
			a.stats.IncCounter(stats.MetricStreamSuperseded, 1)
		}
	}
}

func (a *Analyzer) streamEvaluate(ctx context.Context, in *instance, fen string, logger *zap.Logger) *StreamMessage {
	if err := position.Validate(fen); err != nil {
		return errorMessage(fen, fmt.Errorf("%w: %v", ErrInvalidPosition, err))
	}

	a.stats.IncCounter(stats.MetricEvaluations, 1)
	res, err := in.analyze(ctx, fen)
	if err != nil {
		a.stats.IncCounter(stats.MetricEvaluationErrors, 1)
		logger.Warn("stream evaluation failed", zap.String("fen", fen), zap.Error(err))
		return errorMessage(fen, err)
	}

	eval := newEvaluation(fen, res)
	logger.Debug("stream evaluated", zap.String("fen", fen), zap.Stringer("score", eval.Score))
	return evaluationMessage(eval)
}

// endOfStream decides what Stream returns once no more positions will come.
func (a *Analyzer) endOfStream(ctx context.Context, readErr <-chan error, logger *zap.Logger) error {
	var err error
	select {
	case err = <-readErr:
	default:
		err = ctx.Err()
	}

	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	}
	logger.Error("reading stream position", zap.Error(err))
	return fmt.Errorf("reading stream position: %w", err)
}

func (a *Analyzer) activeStreams(delta int64) int64 {
	return a.openStreams.Add(delta)
}
