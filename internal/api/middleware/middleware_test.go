// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/api/problem"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
})

func get(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestLimit: 3, WindowSize: time.Minute})
	h := rl.Handler(ok)

	for i := range 3 {
		require.Equal(t, http.StatusOK, get(h, "192.168.1.1:12345").Code, "request %d", i+1)
	}
	w := get(h, "192.168.1.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, problem.ContentType, w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])

	// other clients have their own budget
	assert.Equal(t, http.StatusOK, get(h, "192.168.1.2:12345").Code)
}

func TestRateLimiter_SetLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestLimit: 1, WindowSize: time.Minute})
	h := rl.Handler(ok)
	require.Equal(t, http.StatusOK, get(h, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.1:1").Code)

	rl.SetLimit(0)
	for range 5 {
		assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1").Code)
	}

	rl.SetLimit(2)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.1:1").Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	w := get(h, "10.0.0.1:1")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(problem.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(problem.HeaderRequestID, "client-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "client-id", seen)
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	w := get(h, "10.0.0.1:1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, problem.ContentType, w.Header().Get("Content-Type"))
}

func TestStack(t *testing.T) {
	r := NewRouter(StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        []string{"http://scanner.local"},
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
	})
	r.Get("/test", ok)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://scanner.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://scanner.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, DefaultCSP, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(problem.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestShouldTrace(t *testing.T) {
	for path, want := range map[string]bool{
		"/healthz":             false,
		"/metrics":             false,
		"/api/v1/scan/events":  false,
		"/api/v1/scan/state":   true,
		"/api/v1/offline/1234": true,
	} {
		assert.Equal(t, want, shouldTrace(httptest.NewRequest(http.MethodGet, path, nil)), path)
	}
}
