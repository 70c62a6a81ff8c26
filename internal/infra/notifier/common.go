package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"market-pulse/internal/handler/http/requestid"
	"market-pulse/internal/observability/metrics"
	"market-pulse/internal/resilience/circuitbreaker"
	"market-pulse/internal/resilience/retry"
)

// Common webhook error types used by Discord and Slack notifiers

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string // Optional custom message
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// maxRetryAfter caps how long a single delivery waits on a 429.
const maxRetryAfter = 30 * time.Second

// is429Error checks if the error is a rate limit error and extracts retry_after.
func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError reports whether a failed send is worth another attempt.
// Server and network errors are; client errors are not. Rate limits are
// handled separately by waiting for retry_after.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if circuitbreaker.IsRejection(err) {
		return false
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}

	return true
}

// truncateText truncates text to maxLength bytes without splitting a rune.
// If truncated, appends suffix to indicate continuation.
func truncateText(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}

	truncateAt := maxLength - len(suffix)
	if truncateAt < 0 {
		truncateAt = 0
	}
	for truncateAt > 0 && !isRuneStart(text[truncateAt]) {
		truncateAt--
	}

	return text[:truncateAt] + suffix
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// webhookErrorResponse covers the retry_after field sent by Discord and Slack on 429.
type webhookErrorResponse struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"` // In seconds
}

// extractRetryAfter reads retry_after from the JSON body, then the
// Retry-After header. Defaults to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var errResp webhookErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.RetryAfter > 0 {
		return time.Duration(errResp.RetryAfter * float64(time.Second))
	}

	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 5 * time.Second
}

// webhook posts JSON payloads to one URL with rate limiting, retries and a
// circuit breaker. Slack and Discord notifiers embed it.
type webhook struct {
	name        string
	url         string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	policy      *retry.Policy
	sleep       retry.Sleeper
}

func newWebhook(name, url string, timeout time.Duration, limiter *RateLimiter) *webhook {
	cbCfg := circuitbreaker.WebhookConfig(name + "-webhook")
	cbCfg.IsSuccessful = func(err error) bool {
		if err == nil {
			return true
		}
		// A 429 or a cancelled send says nothing about webhook health.
		if _, ok := is429Error(err); ok {
			return true
		}
		return errors.Is(err, context.Canceled)
	}

	return &webhook{
		name:        name,
		url:         url,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: limiter,
		breaker:     circuitbreaker.New(cbCfg),
		policy:      retry.NewPolicy(retry.WebhookConfig()),
		sleep:       retry.Sleep,
	}
}

// post sends one request.
//
// Error types:
//   - 429: *RateLimitError with the server's retry_after
//   - 4xx (non-429): *ClientError (not retried)
//   - 5xx: *ServerError (retried)
//   - Network error: wrapped transport error (retried)
func (w *webhook) post(ctx context.Context, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.name + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", w.name, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", w.name, string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// deliver rate limits and sends payload, retrying per the policy.
// 429 responses wait for retry_after (capped at maxRetryAfter) instead of the backoff.
func (w *webhook) deliver(ctx context.Context, payload any) (err error) {
	requestID := requestid.FromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := slog.Default().With(
		slog.String("request_id", requestID),
		slog.String("channel", w.name))

	defer func() { metrics.RecordNotification(w.name, err == nil) }()

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	maxAttempts := w.policy.MaxAttempts
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := w.breaker.Execute(func() (interface{}, error) {
			return nil, w.post(ctx, payload)
		})
		if err == nil {
			logger.InfoContext(ctx, "notification delivered", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			wait := min(rateLimitErr.RetryAfter, maxRetryAfter)
			logger.WarnContext(ctx, "webhook rate limit hit, backing off",
				slog.Duration("retry_after", wait),
				slog.Int("attempt", attempt))
			if attempt == maxAttempts {
				break
			}
			if err := w.sleep(ctx, wait); err != nil {
				return fmt.Errorf("context canceled during rate limit backoff: %w", err)
			}
			continue
		}

		if !isRetryableError(err) {
			logger.ErrorContext(ctx, "notification failed with non-retryable error",
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < maxAttempts {
			delay := w.policy.Delay(attempt - 1)
			logger.WarnContext(ctx, "webhook request failed, retrying",
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := w.sleep(ctx, delay); err != nil {
				return fmt.Errorf("context canceled during retry backoff: %w", err)
			}
		}
	}

	logger.ErrorContext(ctx, "notification failed after all retries",
		slog.Any("error", lastErr),
		slog.Int("max_attempts", maxAttempts))
	return fmt.Errorf("%s notification failed after %d attempts: %w", w.name, maxAttempts, lastErr)
}

// CircuitOpen reports whether the webhook's circuit breaker is open.
func (w *webhook) CircuitOpen() bool {
	return w.breaker.IsOpen()
}
