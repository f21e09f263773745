// Package logger provides a stats collector that writes every metric update
// to a zap logger at debug level.
//
// Counter totals, the last gauge values and histogram sample counts are kept
// in memory, so log lines carry running totals and tests can read them back.
package logger

import (
	"sync"

	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/stats"
)

// Collector logs metric updates.
type Collector struct {
	logger *zap.Logger

	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
	samples  map[string]int
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a collector logging to l, or nowhere if l is nil.
func New(l *zap.Logger) *Collector {
	if l == nil {
		l = zap.NewNop()
	}
	return &Collector{
		logger:   l.Named("stats"),
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
		samples:  make(map[string]int),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.counters[name] += delta
	total := c.counters[name]
	c.mu.Unlock()

	c.logger.Debug("counter", zap.String("metric", name), zap.Int64("delta", delta), zap.Int64("total", total))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	c.gauges[name] = value
	c.mu.Unlock()

	c.logger.Debug("gauge", zap.String("metric", name), zap.Int64("value", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	c.samples[name]++
	n := c.samples[name]
	c.mu.Unlock()

	c.logger.Debug("histogram", zap.String("metric", name), zap.Float64("value", value), zap.Int("count", n))
}

// Total returns the accumulated value of a counter.
func (c *Collector) Total(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// Gauge returns the last value set on a gauge.
func (c *Collector) Gauge(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gauges[name]
}

// Observations returns the number of samples recorded in a histogram.
func (c *Collector) Observations(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.samples[name]
}
