package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	safetyChecksTotal   *prometheus.CounterVec
	fallbackTransitions *prometheus.CounterVec
	scoringResultsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors shared by the API, safety and scoring layers.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ielts_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ielts_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ielts_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		safetyChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ielts_safety_checks_total",
			Help: "Content safety checks by stage, matched category and outcome.",
		}, []string{"stage", "category", "outcome"})

		fallbackTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ielts_scoring_fallback_transitions_total",
			Help: "Model fallback transitions by source state and error kind.",
		}, []string{"from", "to", "kind"})

		scoringResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ielts_scoring_results_total",
			Help: "Scoring outcomes by assessment type and result.",
		}, []string{"assessment_type", "result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			safetyChecksTotal,
			fallbackTransitions,
			scoringResultsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SafetyChecks exposes the counter for content safety checks.
func SafetyChecks() *prometheus.CounterVec {
	RegisterMetrics()
	return safetyChecksTotal
}

// FallbackTransitions exposes the counter for model fallback transitions.
func FallbackTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return fallbackTransitions
}

// ScoringResults exposes the counter for scoring outcomes.
func ScoringResults() *prometheus.CounterVec {
	RegisterMetrics()
	return scoringResultsTotal
}
