package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when retrying with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmptyText is returned when a model call receives no text.
	ErrEmptyText = errors.New("text is empty")

	// ErrMalformedResponse is returned when a model response cannot be parsed.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrDimensionMismatch is returned when an embedding has an unexpected size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
