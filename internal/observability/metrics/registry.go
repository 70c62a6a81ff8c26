// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Fetch metrics track generative AI summary requests
var (
	// FetchAttemptsTotal counts single generate-and-parse attempts by result
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_fetch_attempts_total",
			Help: "Total number of news fetch attempts",
		},
		[]string{"result"}, // result: success, rate_limited, server_error, invalid_format, other
	)

	// FetchOutcomesTotal counts completed fetch calls by status
	FetchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_fetch_outcomes_total",
			Help: "Total number of completed news fetches",
		},
		[]string{"status"},
	)

	// FetchDuration measures a whole fetch including retry waits
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "news_fetch_duration_seconds",
			Help:    "Time taken by a news fetch including retries",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// FetchAttemptsPerCall records how many attempts a fetch needed
	FetchAttemptsPerCall = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "news_fetch_attempts_per_call",
			Help:    "Number of attempts used by a news fetch",
			Buckets: []float64{1, 2, 3, 4, 5, 10},
		},
	)

	// FetchRetryWait measures backoff waits between attempts
	FetchRetryWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "news_fetch_retry_wait_seconds",
			Help:    "Backoff wait before a news fetch retry",
			Buckets: []float64{0.5, 1, 2, 3, 4, 5, 8, 10, 16},
		},
	)
)

// Dashboard metrics track category refreshes, alerts and notifications
var (
	// RefreshDuration measures a full dashboard refresh
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_refresh_duration_seconds",
			Help:    "Time taken to refresh every news category",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"trigger"}, // trigger: poll, manual
	)

	// CategoryRefreshTotal counts per-category refresh results
	CategoryRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_category_refresh_total",
			Help: "Total number of category refreshes",
		},
		[]string{"category", "status"},
	)

	// LastRefreshTimestamp is the unix time of the last completed refresh
	LastRefreshTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_last_refresh_timestamp_seconds",
			Help: "Unix time of the last completed dashboard refresh",
		},
	)

	// AlertsActive tracks the number of configured price alerts
	AlertsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_alerts_active",
			Help: "Number of configured price alerts",
		},
	)

	// AlertsTriggeredTotal counts alert triggers by condition
	AlertsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_alerts_triggered_total",
			Help: "Total number of price alert triggers",
		},
		[]string{"condition"},
	)

	// NotificationsTotal counts notification deliveries by channel and status
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"channel", "status"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
