// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the scan station over HTTP: scan actions, the live
// event stream, offline products, history and catalogue lookups.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/foodscan/internal/api/middleware"
	"github.com/ManuGH/foodscan/internal/scan/prefs"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// APIPrefix is where the versioned routes are mounted.
	APIPrefix = "/api/v1"

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
	defaultHeartbeat    = 15 * time.Second
)

var _ ServerInterface = (*Server)(nil)

type Server struct {
	deps    Deps
	limiter *middleware.RateLimiter

	mu  sync.RWMutex
	cfg Config

	router *chi.Mux
}

func New(cfg Config, deps Deps) *Server {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	if cfg.IngestFormat == "" {
		cfg.IngestFormat = "unknown"
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	s := &Server{
		deps:    deps,
		cfg:     cfg,
		limiter: middleware.NewRateLimiter(middleware.RateLimitConfig{RequestLimit: cfg.RateLimit, WindowSize: time.Minute}),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetRateLimit changes the per-client budget (requests per minute, 0 disables).
func (s *Server) SetRateLimit(perMinute int) {
	s.mu.Lock()
	s.cfg.RateLimit = perMinute
	s.mu.Unlock()
	s.limiter.SetLimit(perMinute)
}

// SetPrefDefaults changes the preferences used for keys the user never set.
func (s *Server) SetPrefDefaults(p prefs.Prefs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.PrefDefaults = p
}

// SetLanguage changes the default response language.
func (s *Server) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Language = lang
}

func (s *Server) routes() *chi.Mux {
	cfg := s.config()
	r := chi.NewRouter()

	// health checks and metrics stay outside the rate limit and access log
	r.Use(middleware.Recoverer)
	if s.deps.Health != nil {
		r.Get("/healthz", s.deps.Health.ServeHealth)
		r.Get("/readyz", s.deps.Health.ServeReady)
	}
	r.Handle("/metrics", s.deps.Metrics)

	r.Route(APIPrefix, func(r chi.Router) {
		middleware.ApplyStack(r, middleware.StackConfig{
			EnableCORS:            true,
			AllowedOrigins:        cfg.CORSOrigins,
			EnableSecurityHeaders: true,
			EnableMetrics:         true,
			TracingService:        cfg.TracingService,
			EnableLogging:         true,
			RateLimit:             s.limiter,
		})

		HandlerWithOptions(s, ChiServerOptions{
			BaseRouter:       r,
			ErrorHandlerFunc: writeParamError,
		})
	})
	return r
}
