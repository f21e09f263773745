// Package server exposes the analyzer and the PGN parser over HTTP.
//
// Routes:
//
//	GET  /api/analyze?fen=...&priority=...   one evaluation (primary or background)
//	POST /api/parse-pgn  {"pgn": "..."}       move tree views of one game
//	GET  /ws/analyze                          streaming evaluation over a websocket
//	GET  /api/games/{id}                      move tree views of an archived game
//	GET  /api/games/{id}/pgn                  stored PGN text of an archived game
//	GET  /metrics                             metrics, when a handler is configured
//	GET  /healthz                             liveness
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/server/wsconn"
	"github.com/macbase/macbase/internal/stats"
	"github.com/macbase/macbase/internal/store"
)

// maxPGNBytes bounds the body of a parse request.
const maxPGNBytes = 1 << 20

// Analyzer is the evaluation service behind the server.
type Analyzer interface {
	Evaluate(ctx context.Context, fen string, p macbase.Priority) (*macbase.Evaluation, error)
	Stream(ctx context.Context, conn macbase.StreamConn) error
}

// Compile-time check that *macbase.Analyzer implements Analyzer.
var _ Analyzer = (*macbase.Analyzer)(nil)

// Server routes HTTP requests to the analyzer and the parser.
type Server struct {
	router   chi.Router
	analyzer Analyzer
	archive  store.Store
	upgrader websocket.Upgrader
	stats    stats.Collector
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*settings)

type settings struct {
	metrics        http.Handler
	archive        store.Store
	allowedOrigins []string
	stats          stats.Collector
	logger         *zap.Logger
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *settings) { s.metrics = h }
}

// WithArchive serves the games of s under /api/games.
func WithArchive(s store.Store) Option {
	return func(o *settings) { o.archive = s }
}

// WithAllowedOrigins lists the websocket origins accepted besides the
// server's own host. "*" accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *settings) { s.allowedOrigins = origins }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(s *settings) { s.stats = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New creates a Server for a.
func New(a Analyzer, opts ...Option) *Server {
	cfg := settings{
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		analyzer: a,
		archive:  cfg.archive,
		stats:    cfg.stats,
		logger:   cfg.logger.Named("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(cfg.allowedOrigins),
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/analyze", s.handleAnalyze)
	r.Post("/api/parse-pgn", s.handleParse)
	r.Get("/ws/analyze", s.handleStream)
	if s.archive != nil {
		r.Get("/api/games/{id}", s.handleGame)
		r.Get("/api/games/{id}/pgn", s.handleGamePGN)
	}
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fen := strings.TrimSpace(q.Get("fen"))
	if fen == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing fen parameter"))
		return
	}
	p, err := macbase.ParsePriority(q.Get("priority"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	eval, err := s.analyzer.Evaluate(r.Context(), fen, p)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("evaluation failed", zap.String("fen", fen), zap.Stringer("priority", p), zap.Error(err))
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

type parseRequest struct {
	PGN string `json:"pgn"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPGNBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}

	s.stats.IncCounter(stats.MetricPGNParses, 1)
	writeJSON(w, http.StatusOK, macbase.ParsePGN(req.PGN))
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readGame(w, r)
	if !ok {
		return
	}
	s.stats.IncCounter(stats.MetricPGNParses, 1)
	writeJSON(w, http.StatusOK, macbase.ParsePGN(string(text)))
}

func (s *Server) handleGamePGN(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readGame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	w.Write(text)
}

// readGame loads the game named by the id URL parameter, replying with an
// error when it cannot.
func (s *Server) readGame(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid game id"))
		return nil, false
	}
	text, err := s.archive.ReadGame(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return nil, false
	case err != nil:
		s.logger.Error("reading archived game", zap.Int("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("reading archived game"))
		return nil, false
	}
	return text, true
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := wsconn.New(ws)
	defer conn.Close()

	if err := s.analyzer.Stream(r.Context(), conn); err != nil {
		s.logger.Warn("stream ended with error", zap.String("remote", r.RemoteAddr), zap.Error(err))
	}
}

// statusOf maps analyzer errors to HTTP status codes.
func statusOf(err error) int {
	var oracleErr *macbase.OracleError
	switch {
	case errors.Is(err, macbase.ErrInvalidPosition), errors.Is(err, macbase.ErrUnknownPriority):
		return http.StatusBadRequest
	case errors.Is(err, macbase.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// The client went away; the status is never seen.
		return http.StatusServiceUnavailable
	case errors.As(err, &oracleErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// checkOrigin accepts same-host requests, requests without an Origin header
// and the listed origins.
func checkOrigin(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
