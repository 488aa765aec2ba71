// Package metrics provides Prometheus metrics for invariant extraction and
// normalization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeCached  = "cached"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Fallback kinds.
const (
	FallbackUnnamedVariable = "unnamed_variable"
	FallbackUnknownUnit     = "unknown_unit"
)

var (
	// ExtractRequestsTotal counts extraction requests by outcome.
	ExtractRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invnorm_extract_requests_total",
		Help: "Total number of extraction requests, by outcome.",
	}, []string{"outcome"})

	// ExtractDuration observes extraction latency by outcome.
	ExtractDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invnorm_extract_duration_seconds",
		Help:    "Extraction request latency in seconds, by outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	// InvariantsProcessedTotal counts normalized invariants by source.
	InvariantsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invnorm_invariants_processed_total",
		Help: "Total number of invariants normalized, by source (extract/normalize/stream).",
	}, []string{"source"})

	// InvariantsFilteredTotal counts invariants dropped below the confidence threshold.
	InvariantsFilteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invnorm_invariants_filtered_total",
		Help: "Total number of invariants dropped below the confidence threshold.",
	})

	// NormalizationFallbackTotal counts values that landed on a fallback.
	NormalizationFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invnorm_normalization_fallback_total",
		Help: "Total number of names or units that normalized to a fallback value, by kind.",
	}, []string{"kind"})

	// TokensTotal counts model tokens by direction.
	TokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invnorm_llm_tokens_total",
		Help: "Total number of model tokens spent, by direction (input/output).",
	}, []string{"direction"})

	// PIIRedactionsTotal counts redacted data kinds.
	PIIRedactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invnorm_pii_redactions_total",
		Help: "Total number of documents with redacted personal data, by field kind.",
	}, []string{"field"})
)

// RecordRequest records one finished extraction request.
func RecordRequest(outcome string, seconds float64) {
	ExtractRequestsTotal.WithLabelValues(outcome).Inc()
	ExtractDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordTokens adds model token usage.
func RecordTokens(input, output int) {
	if input > 0 {
		TokensTotal.WithLabelValues("input").Add(float64(input))
	}
	if output > 0 {
		TokensTotal.WithLabelValues("output").Add(float64(output))
	}
}
