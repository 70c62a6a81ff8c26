package newsfetch

import (
	"errors"
	"net/http"

	"market-pulse/internal/resilience/retry"
)

// Kind classifies a failed attempt.
type Kind int

const (
	// KindOther covers authentication and request errors, transport errors
	// without a status code, rejected calls and cancellation.
	KindOther Kind = iota
	// KindRateLimited is a 429 from the provider.
	KindRateLimited
	// KindServerError is a 5xx from the provider.
	KindServerError
	// KindInvalidFormat means the reply could not be decoded.
	KindInvalidFormat
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindInvalidFormat:
		return "invalid_format"
	default:
		return "other"
	}
}

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	return k != KindOther
}

// Classify maps an attempt error to its Kind. Only structured status codes
// are inspected, never message text.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, ErrInvalidFormat) {
		return KindInvalidFormat
	}
	if status, ok := retry.StatusCode(err); ok {
		switch {
		case status == http.StatusTooManyRequests:
			return KindRateLimited
		case status >= 500:
			return KindServerError
		}
	}
	return KindOther
}
