// Package news turns category prompts and search queries into dashboard
// panel data using a resilient news fetcher.
package news

import "errors"

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

// Error prefixes shown to users when a fetch fails.
const (
	summaryFailurePrefix = "Failed to fetch news summary. Reason: "
	moverFailurePrefix   = "Failed to fetch market mover data. Reason: "
	searchFailurePrefix  = "Search failed. Reason: "
)

// FetchError is a failed fetch with a user-facing message.
// It unwraps to the underlying *newsfetch.Failure.
type FetchError struct {
	prefix string
	Err    error
}

func (e *FetchError) Error() string { return e.prefix + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }
