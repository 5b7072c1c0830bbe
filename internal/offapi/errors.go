package offapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/ManuGH/foodscan/internal/resilience"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("offapi: resource not found")
	ErrNotModified         = errors.New("offapi: resource not modified")
	ErrForbidden           = errors.New("offapi: access forbidden")
	ErrUpstreamUnavailable = errors.New("offapi: host unreachable or transport failure")
	ErrTimeout             = errors.New("offapi: request timed out")
	ErrUpstreamError       = errors.New("offapi: internal error (5xx)")
	ErrBadResponse         = errors.New("offapi: invalid response format or malformed data")
	ErrRateLimited         = errors.New("offapi: rate limited")
	ErrCanceled            = errors.New("offapi: request canceled")
)

// Error wraps a sentinel with request context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // lower-level cause (net.Error, json error, ...)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// IsNetwork reports whether err is a connectivity failure: the remote could
// not be reached, timed out, or is shielded by an open circuit breaker.
// Any other failure (bad payload, 5xx, 4xx) is not a network failure.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, resilience.ErrCircuitOpen)
}

const maxErrorBody = 256

// bodyReadError marks a response whose body could not be read to the end:
// the connection dropped or was reset after the headers arrived.
type bodyReadError struct{ err error }

func (e *bodyReadError) Error() string { return "read body: " + e.err.Error() }
func (e *bodyReadError) Unwrap() error { return e.err }

var secretPattern = regexp.MustCompile(`(?i)\b(token|sid|password|passwd|session|api_key|apikey|user_id)=([^\s&"']+)`)

func redact(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return ""
	}
	s = secretPattern.ReplaceAllString(s, "$1=[REDACTED]")
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "…"
	}
	return s
}

// wrapError classifies a failed request into one of the sentinels.
func wrapError(op string, err error, status int, body []byte) error {
	e := &Error{Operation: op, Status: status, Body: redact(body), Err: err}

	var netErr net.Error
	var readErr *bodyReadError
	switch {
	case err != nil && errors.Is(err, resilience.ErrCircuitOpen):
		e.Sentinel = ErrUpstreamUnavailable
	case err != nil && errors.Is(err, context.Canceled):
		e.Sentinel = ErrCanceled
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		e.Sentinel = ErrTimeout
	case err != nil && errors.As(err, &netErr) && netErr.Timeout():
		e.Sentinel = ErrTimeout
	case err != nil && status == 0:
		e.Sentinel = ErrUpstreamUnavailable
	case errors.As(err, &readErr):
		e.Sentinel = ErrUpstreamUnavailable
	case status == http.StatusNotModified:
		e.Sentinel = ErrNotModified
	case status == http.StatusNotFound:
		e.Sentinel = ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Sentinel = ErrForbidden
	case status == http.StatusTooManyRequests:
		e.Sentinel = ErrRateLimited
	case status >= http.StatusInternalServerError:
		e.Sentinel = ErrUpstreamError
	default:
		e.Sentinel = ErrBadResponse
	}
	return e
}
