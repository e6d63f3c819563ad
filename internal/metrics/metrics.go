package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome labels for provider attempts.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Registry holds all Prometheus metrics.
// A nil *Registry is valid and records nothing.
type Registry struct {
	*prometheus.Registry

	// Quote path
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	quoteResults     *prometheus.CounterVec

	// Document path
	documentsProcessed *prometheus.CounterVec
	chunksProduced     prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_provider_requests_total",
				Help: "Total number of quote provider attempts",
			},
			[]string{"provider", "outcome"},
		),

		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finrag_provider_request_duration_seconds",
				Help:    "Quote provider request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		quoteResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_quote_results_total",
				Help: "Aggregated quote results by serving source",
			},
			[]string{"source"},
		),

		documentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_documents_processed_total",
				Help: "Documents visited by the pipeline",
			},
			[]string{"status"},
		),

		chunksProduced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "finrag_chunks_produced_total",
				Help: "Total number of chunks produced",
			},
		),
	}

	reg.MustRegister(r.providerRequests)
	reg.MustRegister(r.providerDuration)
	reg.MustRegister(r.quoteResults)
	reg.MustRegister(r.documentsProcessed)
	reg.MustRegister(r.chunksProduced)

	return r
}

// RecordProviderAttempt records one adapter call, or a skip when outcome is
// OutcomeSkipped (no duration observed).
func (r *Registry) RecordProviderAttempt(provider, outcome string, duration float64) {
	if r == nil {
		return
	}
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped {
		r.providerDuration.WithLabelValues(provider).Observe(duration)
	}
}

// RecordQuoteResult records which source served an aggregated quote, or
// "none" when every source failed.
func (r *Registry) RecordQuoteResult(source string) {
	if r == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	r.quoteResults.WithLabelValues(source).Inc()
}

// RecordDocument records a processed document and the chunks it produced.
func (r *Registry) RecordDocument(status string, chunks int) {
	if r == nil {
		return
	}
	r.documentsProcessed.WithLabelValues(status).Inc()
	if chunks > 0 {
		r.chunksProduced.Add(float64(chunks))
	}
}
