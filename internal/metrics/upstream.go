// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodscan_upstream_request_total",
			Help: "Total number of Open Food Facts HTTP request attempts",
		},
		[]string{"endpoint", "status_class"},
	)
	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodscan_upstream_request_duration_seconds",
			Help:    "Duration of Open Food Facts HTTP requests per attempt",
			Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 8),
		},
		[]string{"endpoint", "status_class"},
	)
	upstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodscan_upstream_request_retries_total",
			Help: "Number of Open Food Facts request retries performed",
		},
		[]string{"endpoint"},
	)
)

// StatusClass buckets an HTTP attempt for metric labels.
func StatusClass(err error, status int) string {
	if err != nil && status == 0 {
		return "error"
	}
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status > 0:
		return "1xx"
	}
	return "unknown"
}

// RecordUpstreamAttempt records one upstream HTTP attempt.
func RecordUpstreamAttempt(endpoint string, status int, d time.Duration, err error) {
	class := StatusClass(err, status)
	upstreamRequestTotal.WithLabelValues(endpoint, class).Inc()
	upstreamRequestDuration.WithLabelValues(endpoint, class).Observe(d.Seconds())
}

// IncUpstreamRetry records a retried upstream request.
func IncUpstreamRetry(endpoint string) {
	upstreamRetries.WithLabelValues(endpoint).Inc()
}
