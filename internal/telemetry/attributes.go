// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Scan attributes
	ScanSessionKey    = "scan.session"
	ScanBarcodeKey    = "scan.barcode"
	ScanOutcomeKey    = "scan.outcome"
	ScanGenerationKey = "scan.generation"

	// Taxonomy attributes
	TaxonomyNameKey    = "taxonomy.name"
	TaxonomyEntriesKey = "taxonomy.entries"
	TaxonomyResultKey  = "taxonomy.result"

	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ScanAttributes describes one lookup of the scan sequencer.
func ScanAttributes(session, barcode string, generation uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ScanSessionKey, session),
		attribute.String(ScanBarcodeKey, barcode),
		attribute.Int64(ScanGenerationKey, int64(generation)),
	}
}

// TaxonomyAttributes describes one taxonomy sync.
func TaxonomyAttributes(name, result string, entries int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(TaxonomyNameKey, name),
		attribute.String(TaxonomyResultKey, result),
	}
	if entries > 0 {
		attrs = append(attrs, attribute.Int(TaxonomyEntriesKey, entries))
	}
	return attrs
}
