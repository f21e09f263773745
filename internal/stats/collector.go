// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the module.
const (
	// Analyzer metrics.
	MetricEvaluations      = "macbase_evaluations_total"
	MetricEvaluationErrors = "macbase_evaluation_errors_total"
	MetricEvaluationTime   = "macbase_evaluation_seconds"
	MetricOracleStarts     = "macbase_oracle_starts_total"
	MetricOracleRestarts   = "macbase_oracle_restarts_total"

	// Stream metrics.
	MetricStreamsActive    = "macbase_streams_active"
	MetricStreamMessages   = "macbase_stream_messages_total"
	MetricStreamDebounced  = "macbase_stream_debounced_total"
	MetricStreamSuperseded = "macbase_stream_superseded_total"

	// Parser metrics.
	MetricPGNParses = "macbase_pgn_parses_total"

	// Archive metrics.
	MetricArchiveReads       = "macbase_archive_reads_total"
	MetricArchiveWrites      = "macbase_archive_writes_total"
	MetricArchiveCacheHits   = "macbase_archive_cache_hits_total"
	MetricArchiveCacheMisses = "macbase_archive_cache_misses_total"
	MetricArchiveCacheGames  = "macbase_archive_cache_games"
	MetricArchiveCacheBytes  = "macbase_archive_cache_bytes"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
