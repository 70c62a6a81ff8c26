package newsfetch

import "errors"

var (
	// ErrEmptyResponse is returned when the generator produced no text.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrInvalidFormat is returned when the generated text is not the expected JSON object.
	ErrInvalidFormat = errors.New("invalid JSON format in API response")
)
