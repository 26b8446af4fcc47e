// Package metrics holds the Prometheus collectors exported by syfhack.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "syfhack"

var (
	// IndexRuns counts corpus indexing passes.
	// Labels: status (success, error)
	IndexRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retrieval",
		Name:      "index_runs_total",
		Help:      "Total corpus indexing passes",
	}, []string{"status"})

	// ChunksIndexed counts chunks written to the vector index.
	ChunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retrieval",
		Name:      "chunks_indexed_total",
		Help:      "Total chunks written to the vector index",
	})

	// DocumentsSkipped counts documents that failed extraction.
	DocumentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retrieval",
		Name:      "documents_skipped_total",
		Help:      "Total documents skipped because extraction failed",
	})

	// SearchLatency measures search calls end to end.
	// Labels: status (success, error)
	SearchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "retrieval",
		Name:      "search_duration_seconds",
		Help:      "Search latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"status"})

	// ContextCacheLookups counts context cache lookups.
	// Labels: result (hit, miss, error)
	ContextCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retrieval",
		Name:      "context_cache_lookups_total",
		Help:      "Context cache lookups by result",
	}, []string{"result"})

	// StepsClassified counts classified workflow steps.
	// Labels: severity (low, medium, high, critical)
	StepsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "steps_classified_total",
		Help:      "Total workflow steps classified by severity",
	}, []string{"severity"})

	// ConcernsRaised counts security concerns by kind.
	// Labels: kind
	ConcernsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "concerns_total",
		Help:      "Total security concerns raised by kind",
	}, []string{"kind"})
)

// Status returns the status label for err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
