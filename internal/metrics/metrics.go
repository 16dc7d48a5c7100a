// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the daemon:
// - Backend request latency, throughput, and retry pressure
// - Query cache efficiency and invalidation churn
// - Circuit breaker state
// - Local API latency
// - WebSocket connections and session state

var (
	// Backend Client Metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreviewd_backend_request_duration_seconds",
			Help:    "Duration of requests to the book review backend in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_backend_requests_total",
			Help: "Total number of backend requests",
		},
		[]string{"operation", "status"},
	)

	BackendRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreviewd_backend_retries_total",
			Help: "Total number of retried backend requests (429 backoff)",
		},
	)

	BackendUnauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreviewd_backend_unauthorized_total",
			Help: "Total number of 401 responses that triggered a forced logout",
		},
	)

	// Query Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreviewd_cache_hits_total",
			Help: "Total number of query cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreviewd_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookreviewd_cache_entries",
			Help: "Current number of query cache entries",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreviewd_cache_evictions_total",
			Help: "Total number of cache entries evicted by the janitor",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_cache_invalidations_total",
			Help: "Total number of entries marked stale by invalidation",
		},
		[]string{"prefix"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookreviewd_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Local API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_api_requests_total",
			Help: "Total number of local API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookreviewd_api_request_duration_seconds",
			Help:    "Local API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookreviewd_api_active_requests",
			Help: "Current number of in-flight local API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookreviewd_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookreviewd_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Session Metrics
	SessionAuthenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookreviewd_session_authenticated",
			Help: "Whether the daemon currently holds an authenticated session (0/1)",
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_session_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"transition"}, // login, logout, forced_logout, bootstrap, profile_update
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_token_refreshes_total",
			Help: "Total number of proactive bearer token refreshes",
		},
		[]string{"result"}, // success, failure
	)

	// Event Bus Metrics
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookreviewd_bus_messages_published_total",
			Help: "Total number of messages published on the internal event bus",
		},
		[]string{"topic"},
	)
)

// RecordBackendRequest records latency and outcome of one backend call.
func RecordBackendRequest(operation, status string, duration time.Duration) {
	BackendRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	BackendRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordAPIRequest records latency and outcome of one local API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit counts a fresh cache hit.
func RecordCacheHit() {
	CacheHits.Inc()
}

// RecordCacheMiss counts a miss or stale entry that required a fetch.
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordInvalidation counts entries marked stale under a key prefix.
func RecordInvalidation(prefix string, marked int) {
	CacheInvalidations.WithLabelValues(prefix).Add(float64(marked))
}

// SetSessionAuthenticated reflects the session state as a 0/1 gauge.
func SetSessionAuthenticated(authenticated bool) {
	if authenticated {
		SessionAuthenticated.Set(1)
	} else {
		SessionAuthenticated.Set(0)
	}
}

// RecordSessionTransition counts one session state transition by kind.
func RecordSessionTransition(transition string) {
	SessionTransitions.WithLabelValues(transition).Inc()
}

// RecordTokenRefresh counts one proactive token refresh attempt.
func RecordTokenRefresh(success bool) {
	if success {
		TokenRefreshes.WithLabelValues("success").Inc()
	} else {
		TokenRefreshes.WithLabelValues("failure").Inc()
	}
}

// RecordBusPublish counts one event bus publish.
func RecordBusPublish(topic string) {
	BusMessagesPublished.WithLabelValues(topic).Inc()
}
