// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taxonomySyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_taxonomy_sync_total",
		Help: "Taxonomy sync attempts by taxonomy and result (updated|unchanged|failed|skipped)",
	}, []string{"taxonomy", "result"})

	taxonomyEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodscan_taxonomy_entries",
		Help: "Number of entries stored per taxonomy (last sync)",
	}, []string{"taxonomy"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_cache_requests_total",
		Help: "Response cache lookups by backend and result (hit|miss)",
	}, []string{"backend", "result"})

	historyWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_history_writes_total",
		Help: "Scan history writes by sink and result (ok|error)",
	}, []string{"sink", "result"})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodscan_config_reloads_total",
		Help: "Configuration reload attempts by result",
	}, []string{"result"})
)

// RecordTaxonomySync records one taxonomy sync result.
func RecordTaxonomySync(taxonomy, result string) {
	taxonomySyncTotal.WithLabelValues(taxonomy, result).Inc()
}

// SetTaxonomyEntries exports the entry count of a taxonomy.
func SetTaxonomyEntries(taxonomy string, n int) {
	taxonomyEntries.WithLabelValues(taxonomy).Set(float64(n))
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(backend, result).Inc()
}

// RecordHistoryWrite records the result of a history write.
func RecordHistoryWrite(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	historyWrites.WithLabelValues(sink, result).Inc()
}

// RecordConfigReload records a configuration reload attempt.
func RecordConfigReload(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	configReloads.WithLabelValues(result).Inc()
}
