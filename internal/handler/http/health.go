// Package http provides HTTP handlers and middleware for the dashboard API:
// health probes, metrics, CORS, rate limiting and request logging. The
// news and alert endpoints live in subpackages.
package http

import (
	"fmt"
	"net/http"
	"time"

	"market-pulse/internal/handler/http/respond"
	"market-pulse/internal/observability/slo"
	"market-pulse/internal/usecase/notify"
)

// Check states.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusPending   = "pending"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RefreshStatus reports on dashboard refreshes. *dashboard.Dashboard satisfies it.
type RefreshStatus interface {
	LastUpdated() time.Time
	FetchSuccessRatio() float64
}

// ChannelReporter reports notification channel state. *notify.Service satisfies it.
type ChannelReporter interface {
	ChannelHealth() []notify.ChannelHealthStatus
}

// HealthHandler reports panel freshness, fetch success and notifier state.
// Stale panels make the service unhealthy; a low success ratio or an open
// notifier circuit only degrade it.
type HealthHandler struct {
	Refresh  RefreshStatus
	Channels ChannelReporter // optional
	Version  string

	// MaxAge is the staleness limit. Zero means slo.FreshnessSLO.
	MaxAge time.Duration
	Now    func() time.Time
}

// ServeHTTP performs health checks and returns the application health status.
// Returns 200 OK if healthy or degraded, or 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	checks := map[string]CheckStatus{
		"freshness":     h.checkFreshness(now()),
		"fetch_success": h.checkFetchSuccess(),
	}
	if h.Channels != nil {
		checks["notifiers"] = h.checkChannels()
	}

	status := statusHealthy
	for _, c := range checks {
		switch c.Status {
		case statusUnhealthy:
			status = statusUnhealthy
		case statusDegraded:
			if status == statusHealthy {
				status = statusDegraded
			}
		}
	}

	code := http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkFreshness(now time.Time) CheckStatus {
	last := h.Refresh.LastUpdated()
	if last.IsZero() {
		return CheckStatus{Status: statusPending, Message: "no refresh completed yet"}
	}

	maxAge := h.MaxAge
	if maxAge <= 0 {
		maxAge = slo.FreshnessSLO
	}
	age := now.Sub(last)
	slo.UpdateStaleness(age)

	details := map[string]interface{}{
		"last_updated": last.UTC().Format(time.RFC3339),
		"age_seconds":  int(age.Seconds()),
	}
	if age > maxAge {
		return CheckStatus{
			Status:  statusUnhealthy,
			Message: fmt.Sprintf("panels older than %s", maxAge),
			Details: details,
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkFetchSuccess() CheckStatus {
	ratio := h.Refresh.FetchSuccessRatio()
	details := map[string]interface{}{
		"ratio":  ratio,
		"target": slo.FetchSuccessSLO,
	}
	if ratio < slo.FetchSuccessSLO {
		return CheckStatus{Status: statusDegraded, Message: "fetch success below target", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkChannels() CheckStatus {
	channels := h.Channels.ChannelHealth()
	details := make(map[string]interface{}, len(channels))
	status := statusHealthy
	for _, ch := range channels {
		state := "closed"
		if ch.CircuitBreakerOpen {
			state = "open"
			status = statusDegraded
		}
		details[ch.Name] = state
	}
	return CheckStatus{Status: status, Details: details}
}

// ReadyHandler handles readiness probe requests.
// The service is ready once the first refresh has completed.
type ReadyHandler struct {
	Refresh RefreshStatus
}

// ServeHTTP returns 200 OK if ready, or 503 Service Unavailable before the first refresh.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if h.Refresh.LastUpdated().IsZero() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("waiting for first refresh"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler handles liveness probe requests.
type LiveHandler struct{}

// ServeHTTP always returns 200 OK if the application is able to respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
