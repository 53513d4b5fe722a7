// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to expose them. Record* helpers keep
// label values consistent across call sites.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeminder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codeminder_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Snapshot cache
	SnapshotLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_snapshot_lookups_total",
			Help: "Profile snapshot lookups by outcome (hit, miss, forced)",
		},
		[]string{"platform", "outcome"},
	)

	// Platform adapters
	PlatformFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_platform_fetches_total",
			Help: "Upstream platform fetches by result",
		},
		[]string{"platform", "result"},
	)

	PlatformFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeminder_platform_fetch_duration_seconds",
			Help:    "Duration of a full platform fetch in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"platform"},
	)

	RefreshShared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_refresh_shared_total",
			Help: "Refresh callers that reused another caller's in-flight fetch",
		},
		[]string{"platform"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "codeminder_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// AI model
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_ai_requests_total",
			Help: "Generative model calls by feature and result",
		},
		[]string{"feature", "result"},
	)

	AIRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeminder_ai_repaired_responses_total",
			Help: "Model responses that needed JSON repair before decoding",
		},
	)

	// Contest reminder
	ReminderEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeminder_reminder_emails_total",
			Help: "Contest reminder emails by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordPlatformFetch records one adapter call. err == nil counts as success.
func RecordPlatformFetch(platform string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PlatformFetches.WithLabelValues(platform, result).Inc()
	PlatformFetchDuration.WithLabelValues(platform).Observe(d.Seconds())
}

// RecordAIRequest records one model call for a feature.
func RecordAIRequest(feature string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	AIRequests.WithLabelValues(feature, result).Inc()
}
