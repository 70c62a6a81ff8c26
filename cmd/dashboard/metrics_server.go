package main

import (
	"net/http"
	"time"

	"market-pulse/internal/handler/http/respond"
	"market-pulse/internal/usecase/notify"

	hhttp "market-pulse/internal/handler/http"
)

// ChannelHealthResponse represents the health status of all notification channels.
type ChannelHealthResponse struct {
	Healthy  bool                         `json:"healthy"`
	Channels []notify.ChannelHealthStatus `json:"channels"`
}

// newMetricsServer builds the internal listener scraped by Prometheus.
//
// The server exposes the following endpoints:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health/channels - Notification channel circuit breaker state
func newMetricsServer(addr string, channels hhttp.ChannelReporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /health/channels", channelHealthHandler(channels))

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// channelHealthHandler returns 200 OK when every circuit breaker is closed
// and 503 Service Unavailable when any is open.
func channelHealthHandler(channels hhttp.ChannelReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := channels.ChannelHealth()
		healthy := true
		for _, st := range statuses {
			if st.CircuitBreakerOpen {
				healthy = false
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(w, code, ChannelHealthResponse{Healthy: healthy, Channels: statuses})
	}
}
