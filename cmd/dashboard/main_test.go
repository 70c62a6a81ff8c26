package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-pulse/internal/config"
	"market-pulse/internal/infra/generator"
	"market-pulse/internal/observability/slo"
	"market-pulse/internal/usecase/notify"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		AI:    config.AIConfig{Provider: generator.ProviderStatic, Timeout: time.Second},
		Fetch: config.FetchConfig{MaxAttempts: 1, BaseDelay: time.Millisecond},
		Poll:  config.PollConfig{RefreshTimeout: 5 * time.Second},
		Server: config.ServerConfig{
			Port:              8080,
			RequestTimeout:    5 * time.Second,
			ShutdownTimeout:   time.Second,
			MaxBodyBytes:      1 << 10,
			RateLimitRequests: 10,
			RateLimitWindow:   time.Minute,
		},
		Notify:           config.NotifyConfig{MaxConcurrent: 1},
		LogLevel:         "info",
		LogFormat:        "json",
		Version:          "test",
		TraceSampleRatio: 1,
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), logger, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.notify.Shutdown(context.Background())
		_ = a.shutdownTracer(context.Background())
	})
	return a
}

func TestFreshnessLimit(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{name: "TC-1: manual mode allows a day", interval: 0, want: 24 * time.Hour},
		{name: "TC-2: short interval uses the objective", interval: time.Minute, want: slo.FreshnessSLO},
		{name: "TC-3: long interval allows three missed polls", interval: time.Hour, want: 3 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, freshnessLimit(tt.interval))
		})
	}
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t)

	t.Run("TC-1: should answer liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("TC-2: should not be ready before the first refresh", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("TC-3: should serve panels after a refresh", func(t *testing.T) {
		a.dashboard.RefreshAll(context.Background(), false)

		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body)

		rec = httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("TC-4: should serve metrics on the main port when no metrics port is set", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("TC-5: should rate limit search by peer address despite forwarded headers", func(t *testing.T) {
		codes := make([]int, 0, 11)
		for i := 0; i < 11; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/search?q=TCS", nil)
			req.RemoteAddr = "203.0.113.7:4444"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, codes[10])
	})
}

type fakeChannels []notify.ChannelHealthStatus

func (f fakeChannels) ChannelHealth() []notify.ChannelHealthStatus { return f }

func TestChannelHealthHandler(t *testing.T) {
	t.Run("TC-1: should be healthy when every circuit is closed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		channelHealthHandler(fakeChannels{{Name: "slack"}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/channels", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("TC-2: should return 503 when a circuit is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		channelHealthHandler(fakeChannels{{Name: "slack"}, {Name: "discord", CircuitBreakerOpen: true}}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/channels", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body ChannelHealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Healthy)
		assert.Len(t, body.Channels, 2)
	})
}
