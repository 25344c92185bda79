// Package metrics exposes Prometheus instrumentation for the recommendation
// and analysis pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalearn_recommendations_total",
			Help: "Total number of recommendation requests served",
		},
		[]string{"outcome"}, // "ok", "empty", "error"
	)

	RecommendationCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalearn_recommendation_candidates_total",
			Help: "Candidates considered per source before ranking",
		},
		[]string{"source"}, // "cf", "content"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vocalearn_recommendation_duration_seconds",
			Help:    "Duration of hybrid recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueryEmbeddingCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalearn_query_embedding_cache_total",
			Help: "Query embedding cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Analysis Metrics
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vocalearn_analysis_duration_seconds",
			Help:    "Duration of performance analysis and study planning in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	InvalidRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vocalearn_invalid_assessment_records_total",
			Help: "Assessment records with a non-positive max score",
		},
	)

	// Explanation Metrics
	Explanations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalearn_explanations_total",
			Help: "Explanation attempts by outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "generated", "fallback"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocalearn_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vocalearn_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRecommendation records one served recommendation request.
func RecordRecommendation(duration time.Duration, cfCandidates, contentCandidates, returned int, err error) {
	RecommendationDuration.Observe(duration.Seconds())
	RecommendationCandidates.WithLabelValues("cf").Add(float64(cfCandidates))
	RecommendationCandidates.WithLabelValues("content").Add(float64(contentCandidates))
	switch {
	case err != nil:
		RecommendationsServed.WithLabelValues("error").Inc()
	case returned == 0:
		RecommendationsServed.WithLabelValues("empty").Inc()
	default:
		RecommendationsServed.WithLabelValues("ok").Inc()
	}
}

// RecordExplanation records whether an explanation came from the LLM or the
// deterministic fallback.
func RecordExplanation(kind string, generated bool) {
	outcome := "fallback"
	if generated {
		outcome = "generated"
	}
	Explanations.WithLabelValues(kind, outcome).Inc()
}

// RecordCacheLookup records a query embedding cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		QueryEmbeddingCache.WithLabelValues("hit").Inc()
	} else {
		QueryEmbeddingCache.WithLabelValues("miss").Inc()
	}
}

// RecordAnalysis records analysis duration and invalid record count.
func RecordAnalysis(duration time.Duration, invalidRecords int) {
	AnalysisDuration.Observe(duration.Seconds())
	if invalidRecords > 0 {
		InvalidRecords.Add(float64(invalidRecords))
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
