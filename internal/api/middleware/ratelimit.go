// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ManuGH/foodscan/internal/api/problem"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the number of requests allowed per window; 0 disables limiting.
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc defaults to the client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimiter is a per-client sliding window limiter whose budget can change
// while serving.
type RateLimiter struct {
	cfg     RateLimitConfig
	limiter atomic.Pointer[httprate.RateLimiter]
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = httprate.KeyByIP
	}
	rl := &RateLimiter{cfg: cfg}
	rl.SetLimit(cfg.RequestLimit)
	return rl
}

// SetLimit replaces the budget. Counters restart with the new limiter.
func (rl *RateLimiter) SetLimit(limit int) {
	if limit <= 0 {
		rl.limiter.Store(nil)
		return
	}
	window := rl.cfg.WindowSize
	rl.limiter.Store(httprate.NewRateLimiter(limit, window,
		httprate.WithKeyFuncs(rl.cfg.KeyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too Many Requests",
				"RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.", nil)
		}),
	))
}

// Handler enforces the current budget.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l := rl.limiter.Load(); l != nil {
			l.Handler(next).ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
