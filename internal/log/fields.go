// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOutcome   = "outcome"

	// Scan fields
	FieldBarcode    = "barcode"
	FieldGeneration = "generation"
	FieldSource     = "source"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Taxonomy fields
	FieldTaxonomy = "taxonomy"
	FieldLanguage = "lang"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldBaseURL  = "base_url"
)
