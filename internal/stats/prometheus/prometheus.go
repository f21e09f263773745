// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/macbase/macbase/internal/stats"
)

// help describes the module's own metrics. Unknown names use the name itself.
var help = map[string]string{
	stats.MetricEvaluations:        "Evaluations requested from the analyzer.",
	stats.MetricEvaluationErrors:   "Evaluations that failed.",
	stats.MetricEvaluationTime:     "Time spent in oracle searches, in seconds.",
	stats.MetricOracleStarts:       "Oracle instances created.",
	stats.MetricOracleRestarts:     "Oracle instances discarded after a failure.",
	stats.MetricStreamsActive:      "Open streaming connections.",
	stats.MetricStreamMessages:     "Messages written to streaming connections.",
	stats.MetricStreamDebounced:    "Stream positions skipped because they repeat the last one.",
	stats.MetricStreamSuperseded:   "Stream positions replaced by a newer one before evaluation.",
	stats.MetricPGNParses:          "PGN documents parsed into move trees.",
	stats.MetricArchiveReads:       "Games read from the archive.",
	stats.MetricArchiveWrites:      "Games written to the archive.",
	stats.MetricArchiveCacheHits:   "Archive reads served from the cache.",
	stats.MetricArchiveCacheMisses: "Archive reads that missed the cache.",
	stats.MetricArchiveCacheGames:  "Games held in the archive cache.",
	stats.MetricArchiveCacheBytes:  "PGN bytes held in the archive cache.",
}

// evaluationBuckets spans shallow background searches to deep stream searches.
var evaluationBuckets = prometheus.ExponentialBuckets(0.01, 2, 12)

// Collector implements stats.Collector using Prometheus metrics.
type Collector struct {
	registry prometheus.Registerer

	mu      sync.RWMutex
	metrics map[string]prometheus.Collector
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry: registry,
		metrics:  make(map[string]prometheus.Collector),
	}
}

// Handler serves the metrics of the collector's registry in the exposition
// format. It serves the default gatherer when the registry is not a
// prometheus.Gatherer.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	m := c.getOrCreate(name, func() prometheus.Collector {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: helpFor(name)})
	})
	if counter, ok := m.(prometheus.Counter); ok {
		counter.Add(float64(delta))
	}
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	m := c.getOrCreate(name, func() prometheus.Collector {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: helpFor(name)})
	})
	if gauge, ok := m.(prometheus.Gauge); ok {
		gauge.Set(float64(value))
	}
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	m := c.getOrCreate(name, func() prometheus.Collector {
		buckets := prometheus.DefBuckets
		if name == stats.MetricEvaluationTime {
			buckets = evaluationBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: helpFor(name), Buckets: buckets})
	})
	if histogram, ok := m.(prometheus.Histogram); ok {
		histogram.Observe(value)
	}
}

// getOrCreate returns the metric registered under name, creating and
// registering it with create on first use. A metric registered elsewhere
// under the same name is adopted.
func (c *Collector) getOrCreate(name string, create func() prometheus.Collector) prometheus.Collector {
	c.mu.RLock()
	m, ok := c.metrics[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok = c.metrics[name]; ok {
		return m
	}

	m = create()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			m = are.ExistingCollector
		}
		// Any other registration failure leaves an unexported but usable metric.
	}
	c.metrics[name] = m
	return m
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}
