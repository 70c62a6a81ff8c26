package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-pulse/internal/resilience/retry"
)

var errUpstream = errors.New("upstream unavailable")

// quickTrip opens after a single failure and half-opens after 50ms.
func quickTrip(name string) Config {
	cfg := DefaultConfig(name)
	cfg.MinRequests = 1
	cfg.FailureThreshold = 0.5
	cfg.Timeout = 50 * time.Millisecond
	return cfg
}

func fail(cb *CircuitBreaker, n int, err error) {
	for range n {
		_, _ = Call(cb, func() (struct{}, error) { return struct{}{}, err })
	}
}

func TestNew(t *testing.T) {
	cb := New(GeminiAPIConfig())

	require.NotNil(t, cb)
	assert.Equal(t, "gemini-api", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
}

func TestConfigs(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantName  string
		wantMax   uint32
		wantRatio float64
		wantIntvl time.Duration
	}{
		{"TC-1: default", DefaultConfig("quotes"), "quotes", 3, 0.6, 30 * time.Second},
		{"TC-2: gemini widens the window", GeminiAPIConfig(), "gemini-api", 3, 0.6, 2 * time.Minute},
		{"TC-3: claude", ClaudeAPIConfig(), "claude-api", 3, 0.6, 30 * time.Second},
		{"TC-4: openai", OpenAIAPIConfig(), "openai-api", 3, 0.6, 30 * time.Second},
		{"TC-5: webhook probes one call at a time", WebhookConfig("slack"), "slack", 1, 0.8, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.cfg.Name)
			assert.Equal(t, tt.wantMax, tt.cfg.MaxRequests)
			assert.InDelta(t, tt.wantRatio, tt.cfg.FailureThreshold, 1e-9)
			assert.Equal(t, tt.wantIntvl, tt.cfg.Interval)
			assert.Equal(t, uint32(5), tt.cfg.MinRequests)
			assert.Nil(t, tt.cfg.IsSuccessful)
		})
	}
}

func TestCall(t *testing.T) {
	t.Run("TC-1: should return the typed result", func(t *testing.T) {
		cb := New(ClaudeAPIConfig())

		got, err := Call(cb, func() ([]string, error) { return []string{"TCS", "INFY"}, nil })

		require.NoError(t, err)
		assert.Equal(t, []string{"TCS", "INFY"}, got)
	})

	t.Run("TC-2: should pass the error and partial result through", func(t *testing.T) {
		cb := New(ClaudeAPIConfig())

		got, err := Call(cb, func() (int, error) { return 7, errUpstream })

		assert.ErrorIs(t, err, errUpstream)
		assert.Equal(t, 7, got)
		assert.False(t, IsRejection(err))
	})

	t.Run("TC-3: should reject without calling fn once open", func(t *testing.T) {
		cb := New(quickTrip("openai-api"))
		fail(cb, 1, errUpstream)
		require.True(t, cb.IsOpen())

		called := false
		got, err := Call(cb, func() (*string, error) {
			called = true
			return nil, nil
		})

		assert.False(t, called)
		assert.Nil(t, got)
		assert.True(t, IsRejection(err))
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	})

	t.Run("TC-4: should close again after a healthy half-open call", func(t *testing.T) {
		cb := New(quickTrip("gemini-api"))
		fail(cb, 1, errUpstream)
		require.True(t, cb.IsOpen())

		require.Eventually(t, func() bool {
			return cb.State() == gobreaker.StateHalfOpen
		}, time.Second, 10*time.Millisecond)

		got, err := Call(cb, func() (string, error) { return "ok", nil })

		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.NotEqual(t, gobreaker.StateOpen, cb.State())
	})
}

func TestExecute(t *testing.T) {
	cb := New(WebhookConfig("discord"))

	res, err := cb.Execute(func() (interface{}, error) { return "sent", nil })
	require.NoError(t, err)
	assert.Equal(t, "sent", res)

	res, err = cb.Execute(func() (interface{}, error) { return nil, errUpstream })
	assert.ErrorIs(t, err, errUpstream)
	assert.Nil(t, res)
}

func TestTripThreshold(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		wantOpen bool
	}{
		{"TC-1: below MinRequests stays closed", 4, false},
		{"TC-2: reaching MinRequests at full failure opens", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := New(ClaudeAPIConfig())
			fail(cb, tt.failures, errUpstream)
			assert.Equal(t, tt.wantOpen, cb.IsOpen())
		})
	}

	t.Run("TC-3: successes dilute the failure ratio", func(t *testing.T) {
		cb := New(ClaudeAPIConfig())
		for range 3 {
			_, _ = Call(cb, func() (int, error) { return 1, nil })
		}
		fail(cb, 2, errUpstream)

		assert.False(t, cb.IsOpen(), "2 of 5 is under the 0.6 threshold")
	})
}

// clientFault mirrors the provider rule: a 4xx other than 429 is the
// caller's mistake and says nothing about the upstream's health.
func clientFault(err error) bool {
	if err == nil {
		return true
	}
	status, ok := retry.StatusCode(err)
	return ok && status >= 400 && status < 500 && status != 429
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantOpen bool
	}{
		{"TC-1: 400 bad request leaves the breaker closed", &retry.HTTPError{StatusCode: 400, Message: "bad prompt"}, false},
		{"TC-2: 401 unauthorized leaves the breaker closed", &retry.HTTPError{StatusCode: 401, Message: "bad key"}, false},
		{"TC-3: 429 counts as a failure", &retry.HTTPError{StatusCode: 429, Message: "slow down"}, true},
		{"TC-4: 503 counts as a failure", &retry.HTTPError{StatusCode: 503, Message: "overloaded"}, true},
		{"TC-5: a transport error counts as a failure", errUpstream, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quickTrip("claude-api")
			cfg.IsSuccessful = clientFault
			cb := New(cfg)

			fail(cb, 5, tt.err)

			assert.Equal(t, tt.wantOpen, cb.IsOpen())
		})
	}
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(gobreaker.ErrOpenState))
	assert.True(t, IsRejection(gobreaker.ErrTooManyRequests))
	assert.False(t, IsRejection(errUpstream))
	assert.False(t, IsRejection(nil))
}
