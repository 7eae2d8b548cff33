// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GatewayAttemptsTotal tracks model provider call attempts by outcome.
	GatewayAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_attempts_total",
			Help: "Model provider call attempts",
		},
		[]string{"credential", "operation", "outcome"},
	)

	// GatewayRotationsTotal tracks credential rotations after failed attempts.
	GatewayRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_rotations_total",
			Help: "Credential rotations triggered by failed calls",
		},
	)

	// GatewayCallDuration tracks end-to-end model call duration including retries.
	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Model call duration including rotation retries",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"operation"},
	)

	// EmbeddingCacheLookups tracks embedding cache hits and misses.
	EmbeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_lookups_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	// IndexBatchesTotal tracks memory index batches written.
	IndexBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_index_batches_total",
			Help: "Memory index batches written by outcome",
		},
		[]string{"outcome"},
	)

	// IndexedMessagesTotal tracks messages folded into the memory index.
	IndexedMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_indexed_messages_total",
			Help: "Messages folded into the memory index",
		},
	)

	// RetrievalResults tracks memory entries returned per retrieval.
	RetrievalResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memory_retrieval_results",
			Help:    "Relevant entries returned per retrieval",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	// AssembleDuration tracks context assembly duration.
	AssembleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "context_assemble_duration_seconds",
			Help:    "History optimizer assembly duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"path"},
	)

	// CompressionsTotal tracks history compression calls by outcome.
	CompressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_compressions_total",
			Help: "History compression calls by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGatewayAttempt records one provider call attempt.
func RecordGatewayAttempt(credential, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	GatewayAttemptsTotal.WithLabelValues(credential, operation, outcome).Inc()
}

// RecordCacheLookup records an embedding cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		EmbeddingCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	EmbeddingCacheLookups.WithLabelValues("miss").Inc()
}
