package offapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"testing"

	"github.com/ManuGH/foodscan/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestWrapError_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		sentinel error
		network  bool
	}{
		{"not found", nil, http.StatusNotFound, ErrNotFound, false},
		{"not modified", nil, http.StatusNotModified, ErrNotModified, false},
		{"forbidden", nil, http.StatusForbidden, ErrForbidden, false},
		{"unauthorized", nil, http.StatusUnauthorized, ErrForbidden, false},
		{"rate limited", nil, http.StatusTooManyRequests, ErrRateLimited, false},
		{"server error", nil, http.StatusBadGateway, ErrUpstreamError, false},
		{"bad request", nil, http.StatusBadRequest, ErrBadResponse, false},
		{"decode", errors.New("unexpected EOF"), http.StatusOK, ErrBadResponse, false},
		{"body cut short", &bodyReadError{err: io.ErrUnexpectedEOF}, http.StatusOK, ErrUpstreamUnavailable, true},
		{"body reset", &bodyReadError{err: syscall.ECONNRESET}, http.StatusOK, ErrUpstreamUnavailable, true},
		{"body read deadline", &bodyReadError{err: context.DeadlineExceeded}, http.StatusOK, ErrTimeout, true},
		{"transport", errors.New("connection refused"), 0, ErrUpstreamUnavailable, true},
		{"net timeout", timeoutErr{}, 0, ErrTimeout, true},
		{"deadline", context.DeadlineExceeded, 0, ErrTimeout, true},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), 0, ErrTimeout, true},
		{"canceled", context.Canceled, 0, ErrCanceled, false},
		{"circuit open", resilience.ErrCircuitOpen, 0, ErrUpstreamUnavailable, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := wrapError("test", tc.err, tc.status, nil)
			require.ErrorIs(t, err, tc.sentinel)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "test", apiErr.Operation)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.network, IsNetwork(err))
		})
	}
}

func TestWrapError_KeepsCause(t *testing.T) {
	err := wrapError("product", resilience.ErrCircuitOpen, 0, nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestWrapError_Redaction(t *testing.T) {
	body := []byte("failed for user_id=alice&password=hunter2 token=abc123 sid=XYZ")
	err := wrapError("product", nil, http.StatusBadRequest, body)

	msg := err.Error()
	assert.Contains(t, msg, "[REDACTED]")
	for _, secret := range []string{"alice", "hunter2", "abc123", "XYZ"} {
		assert.NotContains(t, msg, secret)
	}
}

func TestWrapError_TruncatesBody(t *testing.T) {
	err := wrapError("search", nil, http.StatusInternalServerError, []byte(strings.Repeat("x", 1000)))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.LessOrEqual(t, len(apiErr.Body), maxErrorBody+len("…"))
}

func TestIsNetwork_Nil(t *testing.T) {
	assert.False(t, IsNetwork(nil))
	assert.False(t, IsNetwork(errors.New("boom")))
}
