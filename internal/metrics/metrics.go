// Package metrics exposes Prometheus instrumentation for the recommendation
// pipeline and the persisted collections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completion endpoint metrics
	CompletionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marlow_completion_requests_total",
			Help: "Total number of completion endpoint requests by outcome",
		},
		[]string{"outcome"}, // "ok", "unauthorized", "rate_limited", "server", "malformed", "transport", "circuit_open"
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marlow_completion_request_duration_seconds",
			Help:    "Duration of completion endpoint requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marlow_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marlow_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Generation metrics
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marlow_generations_total",
			Help: "Total number of recommendation generations by final status",
		},
		[]string{"status"},
	)

	ProposalsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marlow_proposals_generated_total",
			Help: "Total number of proposals appended to the proposed list",
		},
	)

	GenerationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marlow_generations_in_flight",
			Help: "Number of generation tasks currently running",
		},
	)

	// Collection metrics
	CollectionWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marlow_collection_writes_total",
			Help: "Total number of collection snapshot writes",
		},
		[]string{"collection", "result"}, // result: "ok", "error"
	)

	CollectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marlow_collection_entries",
			Help: "Current number of records held by a collection",
		},
		[]string{"collection"},
	)

	// Import metrics
	ImportedBooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marlow_imported_books_total",
			Help: "Total number of books imported from CSV exports",
		},
		[]string{"source"}, // "api", "watcher", "cli"
	)
)

// RecordCompletion records a finished completion request.
func RecordCompletion(outcome string, duration time.Duration) {
	CompletionRequests.WithLabelValues(outcome).Inc()
	CompletionDuration.Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change.
// States are "closed", "half-open" and "open".
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	var v float64
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordCollectionWrite records a snapshot write for the named collection.
func RecordCollectionWrite(collection string, size int, err error) {
	if err != nil {
		CollectionWrites.WithLabelValues(collection, "error").Inc()
		return
	}
	CollectionWrites.WithLabelValues(collection, "ok").Inc()
	CollectionSize.WithLabelValues(collection).Set(float64(size))
}

// RecordGeneration records the terminal status of a generation task.
func RecordGeneration(status string, proposals int) {
	Generations.WithLabelValues(status).Inc()
	if proposals > 0 {
		ProposalsGenerated.Add(float64(proposals))
	}
}

// TrackGeneration adjusts the in-flight generation gauge.
func TrackGeneration(start bool) {
	if start {
		GenerationsInFlight.Inc()
	} else {
		GenerationsInFlight.Dec()
	}
}

// RecordImport records books imported through source.
func RecordImport(source string, count int) {
	ImportedBooks.WithLabelValues(source).Add(float64(count))
}
