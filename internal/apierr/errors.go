// Package apierr provides shared error sentinels and retry infrastructure
// for the HTTP services this module talks to (YouTube, OpenAI).
//
// Adapters classify transport failures into these sentinels at their boundary
// with FromStatus or fmt.Errorf("%s: %w", msg, sentinel); callers check with
// errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound indicates the remote resource does not exist (404/410).
	ErrNotFound = errors.New("not found")

	// ErrServer indicates a 5xx response (retryable).
	ErrServer = errors.New("server error")
)

// FromStatus maps a non-2xx HTTP status code and message to a wrapped sentinel.
// Unknown codes produce an unclassified error carrying the status.
func FromStatus(status int, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusTooManyRequests:
		// Quota exhaustion needs user action and must not be retried.
		if strings.Contains(msg, "quota") || strings.Contains(msg, "billing") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", msg, ErrTimeout)
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case http.StatusBadRequest, http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, ErrBadRequest)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, ErrServer)
	default:
		return fmt.Errorf("HTTP %d: %s", status, msg)
	}
}

// IsRetryable reports whether err is a transient API failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}
