package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"market-pulse/internal/resilience/circuitbreaker"
)

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

// statusServer answers with the given statuses in order; the last one repeats.
func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		if statuses[n] == http.StatusTooManyRequests {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statuses[n])
			_, _ = w.Write([]byte(`{"message":"slow down","retry_after":1.5}`))
			return
		}
		w.WriteHeader(statuses[n])
		_, _ = w.Write([]byte("status body"))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestWebhook(url string, s *sleepRecorder) *webhook {
	w := newWebhook("test", url, time.Second, NewRateLimiter(1000, 100))
	w.sleep = s.sleep
	return w
}

func TestWebhook_Deliver(t *testing.T) {
	t.Run("TC-1: should succeed on first 2xx", func(t *testing.T) {
		srv, calls := statusServer(t, http.StatusNoContent)
		s := &sleepRecorder{}

		err := newTestWebhook(srv.URL, s).deliver(context.Background(), map[string]string{"text": "hi"})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
		if len(s.waits) != 0 {
			t.Errorf("expected no waits, got %v", s.waits)
		}
	})

	t.Run("TC-2: should retry server errors then succeed", func(t *testing.T) {
		srv, calls := statusServer(t, http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK)
		s := &sleepRecorder{}

		err := newTestWebhook(srv.URL, s).deliver(context.Background(), "x")

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
		if len(s.waits) != 2 {
			t.Fatalf("expected 2 waits, got %v", s.waits)
		}
		if s.waits[1] <= s.waits[0] {
			t.Errorf("expected growing backoff, got %v", s.waits)
		}
	})

	t.Run("TC-3: should not retry client errors", func(t *testing.T) {
		srv, calls := statusServer(t, http.StatusNotFound)
		s := &sleepRecorder{}

		err := newTestWebhook(srv.URL, s).deliver(context.Background(), "x")

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected *ClientError, got %T %v", err, err)
		}
		if clientErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", clientErr.StatusCode)
		}
		if !strings.Contains(clientErr.Error(), "status body") {
			t.Errorf("expected body in message, got %q", clientErr.Error())
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("TC-4: should wait retry_after on 429", func(t *testing.T) {
		srv, calls := statusServer(t, http.StatusTooManyRequests, http.StatusOK)
		s := &sleepRecorder{}

		err := newTestWebhook(srv.URL, s).deliver(context.Background(), "x")

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
		if len(s.waits) != 1 || s.waits[0] != 1500*time.Millisecond {
			t.Errorf("expected one 1.5s wait, got %v", s.waits)
		}
	})

	t.Run("TC-5: should report last error after all attempts", func(t *testing.T) {
		srv, calls := statusServer(t, http.StatusServiceUnavailable)
		s := &sleepRecorder{}

		err := newTestWebhook(srv.URL, s).deliver(context.Background(), "x")

		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("expected *ServerError, got %v", err)
		}
		if !strings.Contains(err.Error(), "after 3 attempts") {
			t.Errorf("unexpected message %q", err.Error())
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("TC-6: should stop when context is cancelled", func(t *testing.T) {
		srv, _ := statusServer(t, http.StatusInternalServerError)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := newTestWebhook(srv.URL, &sleepRecorder{}).deliver(ctx, "x")

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("TC-7: should open circuit after repeated failures", func(t *testing.T) {
		srv, calls := statusServer(t, http.StatusInternalServerError)
		w := newTestWebhook(srv.URL, &sleepRecorder{})

		_ = w.deliver(context.Background(), "x")
		_ = w.deliver(context.Background(), "x")
		before := calls.Load()
		err := w.deliver(context.Background(), "x")

		if !circuitbreaker.IsRejection(err) {
			t.Fatalf("expected breaker rejection, got %v", err)
		}
		if calls.Load() != before {
			t.Errorf("expected no request while open, got %d more", calls.Load()-before)
		}
	})
}

func TestExtractRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
	}{
		{name: "json body", body: `{"retry_after":2.5}`, want: 2500 * time.Millisecond},
		{name: "header", header: "7", body: "plain", want: 7 * time.Second},
		{name: "default", body: "", want: 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			if got := extractRetryAfter(resp, []byte(tt.body)); got != tt.want {
				t.Errorf("extractRetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10, "..."); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncateText("abcdefghij", 8, "..."); got != "abcde..." {
		t.Errorf("unexpected %q", got)
	}
	got := truncateText("₹₹₹₹", 7, "...")
	if got != "₹..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&ServerError{StatusCode: 500}, true},
		{&ClientError{StatusCode: 400}, false},
		{&RateLimitError{RetryAfter: time.Second}, false},
		{context.Canceled, false},
		{errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}
