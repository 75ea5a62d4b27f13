// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts completed requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidtube_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// DBQueryDuration records store query latency by operation.
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidtube_db_query_duration_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// MediaOperations counts media host calls by operation and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_media_operations_total",
		Help: "Media host operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_cache_lookups_total",
		Help: "Cache lookups by key space and result",
	}, []string{"space", "result"})

	// Toggles counts toggle operations by relation and resulting state.
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_toggles_total",
		Help: "Toggle operations by relation and resulting state",
	}, []string{"relation", "state"})
)

// TrackQuery returns a func that records the latency of operation when called.
func TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error to the outcome label used by counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ToggleState maps a toggle result to its state label.
func ToggleState(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
