// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts barcode callbacks by what the session did with them.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_scans_total",
		Help: "Barcode reads by result (accepted|duplicate|empty|invalid|manual)",
	}, []string{"result"})

	// LookupsTotal counts resolved lookups by outcome.
	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_lookups_total",
		Help: "Product lookups by outcome (found|offline|not_found|add_offline|connection_error|cancelled)",
	}, []string{"outcome"})

	lookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodscan_lookup_duration_seconds",
		Help:    "Duration of product lookups from barcode to displayed result",
		Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 9),
	}, []string{"outcome"})

	hintsShown = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodscan_scan_hints_total",
		Help: "Number of times the search-by-barcode hint fired",
	})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_camera_frames_dropped_total",
		Help: "Camera frames dropped by reason (stopped|busy)",
	}, []string{"reason"})

	workflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_workflow_transitions_total",
		Help: "Workflow state broadcasts by target state",
	}, []string{"state"})

	cameraLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodscan_camera_live",
		Help: "Whether the camera feed is live (1) or frozen (0)",
	})
)

// RecordScan increments the scan counter for result.
func RecordScan(result string) {
	ScansTotal.WithLabelValues(result).Inc()
}

// RecordLookup records a finished lookup.
func RecordLookup(outcome string, d time.Duration) {
	LookupsTotal.WithLabelValues(outcome).Inc()
	lookupDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncHintShown records that the scan hint fired.
func IncHintShown() {
	hintsShown.Inc()
}

// IncFrameDropped records a dropped camera frame.
func IncFrameDropped(reason string) {
	framesDropped.WithLabelValues(reason).Inc()
}

// RecordWorkflowState records a workflow state broadcast.
func RecordWorkflowState(state string) {
	workflowTransitions.WithLabelValues(state).Inc()
}

// SetCameraLive exports the camera live flag.
func SetCameraLive(live bool) {
	if live {
		cameraLive.Set(1)
		return
	}
	cameraLive.Set(0)
}
