package macbase

import (
	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/oracle"
	"github.com/macbase/macbase/internal/stats"
)

// DefaultEnginePath is the engine binary used when no oracle factory is set.
// It is looked up in PATH.
const DefaultEnginePath = "stockfish"

// Default search configurations.
var (
	// DefaultPrimaryConfig favors snappy interactive answers.
	DefaultPrimaryConfig = oracle.Config{Depth: 12, Threads: 6, HashMB: 256, MultiPV: 3}

	// DefaultBackgroundConfig is for speculative prefetching.
	DefaultBackgroundConfig = oracle.Config{Depth: 10, Threads: 2, HashMB: 64, MultiPV: 3}

	// DefaultStreamConfig is used by each streaming connection.
	DefaultStreamConfig = oracle.Config{Depth: 15, Threads: 4, HashMB: 256, MultiPV: 3}
)

// Option configures an Analyzer.
type Option interface {
	apply(*options)
}

// options holds the analyzer configuration.
type options struct {
	factory    oracle.Factory
	enginePath string
	primary    oracle.Config
	background oracle.Config
	stream     oracle.Config
	stats      stats.Collector
	logger     *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		enginePath: DefaultEnginePath,
		primary:    DefaultPrimaryConfig,
		background: DefaultBackgroundConfig,
		stream:     DefaultStreamConfig,
		stats:      stats.NewNoop(),
		logger:     zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithOracleFactory sets how oracle instances are created.
// If not set, UCI engines are started from the engine path.
func WithOracleFactory(f oracle.Factory) Option {
	return optionFunc(func(o *options) {
		o.factory = f
	})
}

// WithEnginePath sets the UCI engine binary. It has no effect when an oracle
// factory is set.
func WithEnginePath(path string) Option {
	return optionFunc(func(o *options) {
		o.enginePath = path
	})
}

// WithPrimaryConfig sets the search configuration of the primary instance.
func WithPrimaryConfig(cfg oracle.Config) Option {
	return optionFunc(func(o *options) {
		o.primary = cfg
	})
}

// WithBackgroundConfig sets the search configuration of the background
// instance.
func WithBackgroundConfig(cfg oracle.Config) Option {
	return optionFunc(func(o *options) {
		o.background = cfg
	})
}

// WithStreamConfig sets the search configuration of streaming connections.
func WithStreamConfig(cfg oracle.Config) Option {
	return optionFunc(func(o *options) {
		o.stream = cfg
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
