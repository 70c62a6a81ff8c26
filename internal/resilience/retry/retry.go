// Package retry provides retry logic with exponential backoff and jitter.
// It helps handle transient failures gracefully by automatically retrying failed operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"
)

// Config holds the configuration for retry logic.
//
// The wait before retry number i+1 (i starting at 0) is
// BaseDelay * 2^i plus a uniform jitter in [0, MaxJitter).
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// BaseDelay is the delay before the first retry, before jitter.
	BaseDelay time.Duration

	// MaxJitter is the exclusive upper bound of the random delay added to every wait.
	MaxJitter time.Duration
}

// DefaultConfig returns the configuration used for generative AI calls:
// three attempts with waits of ~2s and ~4s plus up to 1s of jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxJitter:   1 * time.Second,
	}
}

// WebhookConfig returns configuration for notification webhooks.
// Short waits, since a late notification is worth less than a late summary.
func WebhookConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxJitter:   250 * time.Millisecond,
	}
}

// Jitter is a source of random jitter. *rand.Rand from math/rand/v2
// satisfies it, so tests can pass a seeded source.
type Jitter interface {
	Int64N(n int64) int64
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Policy executes operations according to a Config. The zero values of the
// optional fields fall back to IsRetryable, the global random source and Sleep.
//
// A Policy is safe for concurrent use; the only shared state is the jitter
// source, which is guarded.
type Policy struct {
	Config

	// Retryable reports whether an error is worth another attempt.
	Retryable func(error) bool

	// OnRetry is called before every wait. When nil, Do logs the retry itself.
	OnRetry func(attempt int, delay time.Duration, err error)

	sleep  Sleeper
	jitter *lockedJitter
}

// NewPolicy creates a Policy from cfg with the default classifier.
func NewPolicy(cfg Config) *Policy {
	return &Policy{Config: cfg, Retryable: IsRetryable}
}

// WithJitter returns a copy of p drawing jitter from j.
func (p *Policy) WithJitter(j Jitter) *Policy {
	cp := *p
	cp.jitter = &lockedJitter{src: j}
	return &cp
}

// WithSleeper returns a copy of p that waits through s.
func (p *Policy) WithSleeper(s Sleeper) *Policy {
	cp := *p
	cp.sleep = s
	return &cp
}

// WithMaxAttempts returns a copy of p limited to n attempts.
func (p *Policy) WithMaxAttempts(n int) *Policy {
	cp := *p
	cp.MaxAttempts = n
	return &cp
}

// Delay returns the wait that follows the attempt with the given 0-based index.
func (p *Policy) Delay(attemptIndex int) time.Duration {
	d := p.BaseDelay << uint(attemptIndex)
	if p.MaxJitter > 0 {
		d += time.Duration(p.jitter.Int64N(int64(p.MaxJitter)))
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. fn receives the 1-based attempt number.
//
// Non-retryable errors are returned as-is. When every attempt fails the last
// error is wrapped in *ExhaustedError. A cancelled wait returns the context
// error wrapped with "retry aborted".
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if !retryable(lastErr) {
			slog.WarnContext(ctx, "non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt - 1)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		} else {
			slog.WarnContext(ctx, "operation failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxAttempts),
				slog.Duration("delay", delay),
				slog.Any("error", lastErr))
		}

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	}

	return &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retry attempts (%d) exceeded: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	if status, ok := StatusCode(err); ok {
		return status >= 500 && status < 600 ||
			status == http.StatusTooManyRequests ||
			status == http.StatusRequestTimeout
	}

	return false
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the status code of an *HTTPError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

type lockedJitter struct {
	mu  sync.Mutex
	src Jitter
}

func (l *lockedJitter) Int64N(n int64) int64 {
	if l == nil || l.src == nil {
		// #nosec G404 -- jitter does not need cryptographic randomness.
		return rand.Int64N(n)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int64N(n)
}
