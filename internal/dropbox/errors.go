// Package dropbox provides an HTTP client for the Dropbox API v2 with
// PKCE refresh-token authentication, single-call and chunked session
// uploads, folder listing, downloads, and shared-link creation.
package dropbox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for API failure classification.
// Use errors.Is(err, dropbox.ErrNotFound) to check.
var (
	ErrBadInput     = errors.New("dropbox: bad input")
	ErrUnauthorized = errors.New("dropbox: unauthorized")
	ErrForbidden    = errors.New("dropbox: forbidden")
	ErrNotFound     = errors.New("dropbox: path not found")
	ErrConflict     = errors.New("dropbox: path conflict")
	ErrBadOffset    = errors.New("dropbox: upload session offset mismatch")
	ErrThrottled    = errors.New("dropbox: too many requests")
	ErrServerError  = errors.New("dropbox: server error")
	ErrEndpoint     = errors.New("dropbox: endpoint error")
)

// APIError wraps a sentinel error with HTTP status code, the Dropbox request
// ID, and the API error summary for debugging.
type APIError struct {
	StatusCode int
	RequestID  string
	Summary    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("dropbox: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Summary)
	}

	return fmt.Sprintf("dropbox: HTTP %d: %s", e.StatusCode, e.Summary)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classify maps an HTTP status code and error summary to a sentinel error.
// Dropbox signals endpoint-specific failures as 409 with a slash-delimited
// error_summary (e.g. "path/not_found/..", "incorrect_offset/.."), so 409
// needs the summary to distinguish lookup failures from name collisions and
// session sequencing errors. Returns nil for 2xx codes.
func classify(code int, summary string) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadInput
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return classifyConflict(summary)
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			return nil
		}

		return ErrEndpoint
	}
}

// classifyConflict refines a 409 response by its error summary.
func classifyConflict(summary string) error {
	switch {
	case strings.Contains(summary, "not_found"):
		return ErrNotFound
	case strings.Contains(summary, "incorrect_offset"):
		return ErrBadOffset
	case strings.Contains(summary, "conflict"):
		return ErrConflict
	default:
		return ErrEndpoint
	}
}

// IsRetryable reports whether an error is a transient transport-level failure
// (throttling or a 5xx) as opposed to a terminal protocol failure such as a
// sequencing mismatch. Nothing in this client retries data calls
// automatically — the classification exists so callers (the shared-link
// settle poll today, a full retry layer tomorrow) do not have to re-derive
// the taxonomy.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrServerError)
}
