package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent indicates that extraction produced no usable text.
	ErrNoContent = errors.New("no content extracted")

	// ErrTranscriptUnavailable indicates that no transcript service is configured
	// or the service has no transcript for the video.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
)

// HTTPError represents a non-success HTTP response during extraction.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}
