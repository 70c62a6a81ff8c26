package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-pulse/internal/usecase/notify"
)

type stubRefresh struct {
	last  time.Time
	ratio float64
}

func (s stubRefresh) LastUpdated() time.Time     { return s.last }
func (s stubRefresh) FetchSuccessRatio() float64 { return s.ratio }

type stubChannels []notify.ChannelHealthStatus

func (s stubChannels) ChannelHealth() []notify.ChannelHealthStatus { return s }

var healthNow = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func serveHealth(t *testing.T, h *HealthHandler) (int, HealthResponse, http.Header) {
	t.Helper()
	h.Now = func() time.Time { return healthNow }
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return rr.Code, resp, rr.Header()
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("TC-1: should be healthy with fresh panels", func(t *testing.T) {
		code, resp, hdr := serveHealth(t, &HealthHandler{
			Refresh: stubRefresh{last: healthNow.Add(-2 * time.Minute), ratio: 1},
			Version: "1.2.3",
		})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Equal(t, "2026-01-02T10:00:00Z", resp.Timestamp)
		assert.Equal(t, "healthy", resp.Checks["freshness"].Status)
		assert.Equal(t, float64(120), resp.Checks["freshness"].Details["age_seconds"])
		assert.Equal(t, "no-cache, no-store, must-revalidate", hdr.Get("Cache-Control"))
		assert.NotContains(t, resp.Checks, "notifiers")
	})

	t.Run("TC-2: should be unhealthy when panels are stale", func(t *testing.T) {
		code, resp, _ := serveHealth(t, &HealthHandler{
			Refresh: stubRefresh{last: healthNow.Add(-time.Hour), ratio: 1},
		})

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "unhealthy", resp.Checks["freshness"].Status)
	})

	t.Run("TC-3: should honour a custom max age", func(t *testing.T) {
		code, _, _ := serveHealth(t, &HealthHandler{
			Refresh: stubRefresh{last: healthNow.Add(-2 * time.Minute), ratio: 1},
			MaxAge:  time.Minute,
		})

		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("TC-4: should report pending before the first refresh", func(t *testing.T) {
		code, resp, _ := serveHealth(t, &HealthHandler{Refresh: stubRefresh{ratio: 1}})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "pending", resp.Checks["freshness"].Status)
	})

	t.Run("TC-5: should degrade on low fetch success", func(t *testing.T) {
		code, resp, _ := serveHealth(t, &HealthHandler{
			Refresh: stubRefresh{last: healthNow, ratio: 0.5},
		})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "degraded", resp.Checks["fetch_success"].Status)
	})

	t.Run("TC-6: should degrade on an open notifier circuit", func(t *testing.T) {
		code, resp, _ := serveHealth(t, &HealthHandler{
			Refresh: stubRefresh{last: healthNow, ratio: 1},
			Channels: stubChannels{
				{Name: "slack", CircuitBreakerOpen: false},
				{Name: "discord", CircuitBreakerOpen: true},
			},
		})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", resp.Status)
		notifiers := resp.Checks["notifiers"]
		assert.Equal(t, "closed", notifiers.Details["slack"])
		assert.Equal(t, "open", notifiers.Details["discord"])
	})
}

func TestReadyHandler_ServeHTTP(t *testing.T) {
	rr := httptest.NewRecorder()
	(&ReadyHandler{Refresh: stubRefresh{}}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	(&ReadyHandler{Refresh: stubRefresh{last: healthNow}}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", rr.Body.String())
}

func TestLiveHandler_ServeHTTP(t *testing.T) {
	rr := httptest.NewRecorder()
	(&LiveHandler{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alive", rr.Body.String())
}
