package apierr_test

// Coverage Notes:
// - FromStatus is tested per status family; the message is checked only where it
//   drives classification (quota vs rate limit).
// - IsRetryable is tested against wrapped sentinels, the way adapters return them.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/alnah/yt-transcript/internal/apierr"
)

// ---------------------------------------------------------------------------
// TestFromStatus - HTTP status codes map to sentinels
// ---------------------------------------------------------------------------

func TestFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		msg    string
		want   error
	}{
		{name: "rate limit", status: http.StatusTooManyRequests, msg: "slow down", want: apierr.ErrRateLimit},
		{name: "quota", status: http.StatusTooManyRequests, msg: "You exceeded your current quota", want: apierr.ErrQuotaExceeded},
		{name: "billing", status: http.StatusTooManyRequests, msg: "check your billing details", want: apierr.ErrQuotaExceeded},
		{name: "unauthorized", status: http.StatusUnauthorized, msg: "bad key", want: apierr.ErrAuthFailed},
		{name: "request timeout", status: http.StatusRequestTimeout, want: apierr.ErrTimeout},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, want: apierr.ErrTimeout},
		{name: "not found", status: http.StatusNotFound, want: apierr.ErrNotFound},
		{name: "gone", status: http.StatusGone, want: apierr.ErrNotFound},
		{name: "bad request", status: http.StatusBadRequest, want: apierr.ErrBadRequest},
		{name: "forbidden", status: http.StatusForbidden, want: apierr.ErrBadRequest},
		{name: "internal", status: http.StatusInternalServerError, want: apierr.ErrServer},
		{name: "bad gateway", status: http.StatusBadGateway, want: apierr.ErrServer},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: apierr.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := apierr.FromStatus(tt.status, tt.msg)
			if !errors.Is(err, tt.want) {
				t.Errorf("FromStatus(%d, %q) = %v, want errors.Is %v", tt.status, tt.msg, err, tt.want)
			}
		})
	}
}

func TestFromStatus_Unclassified(t *testing.T) {
	t.Parallel()

	err := apierr.FromStatus(http.StatusTeapot, "")
	for _, sentinel := range []error{
		apierr.ErrRateLimit, apierr.ErrQuotaExceeded, apierr.ErrTimeout,
		apierr.ErrAuthFailed, apierr.ErrBadRequest, apierr.ErrNotFound, apierr.ErrServer,
	} {
		if errors.Is(err, sentinel) {
			t.Errorf("FromStatus(418) matched %v, want unclassified", sentinel)
		}
	}
	if !strings.Contains(err.Error(), "418") {
		t.Errorf("error %q should mention the status code", err)
	}
}

// ---------------------------------------------------------------------------
// TestIsRetryable - only transient sentinels are retryable
// ---------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limit", err: fmt.Errorf("x: %w", apierr.ErrRateLimit), want: true},
		{name: "timeout", err: fmt.Errorf("x: %w", apierr.ErrTimeout), want: true},
		{name: "server", err: fmt.Errorf("x: %w", apierr.ErrServer), want: true},
		{name: "quota", err: fmt.Errorf("x: %w", apierr.ErrQuotaExceeded), want: false},
		{name: "auth", err: fmt.Errorf("x: %w", apierr.ErrAuthFailed), want: false},
		{name: "not found", err: fmt.Errorf("x: %w", apierr.ErrNotFound), want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := apierr.IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
