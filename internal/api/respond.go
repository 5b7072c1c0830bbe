// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ManuGH/foodscan/internal/api/problem"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/validate"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON is decodeBody followed by struct tag validation.
func decodeJSON[T any](r *http.Request) (T, error) {
	v, err := decodeBody[T](r)
	if err != nil {
		return v, err
	}
	return v, validate.Struct(v)
}

// decodeBody reads a single JSON document into T, rejecting unknown fields.
func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errEmptyBody
		}
		return v, err
	}
	if dec.More() {
		return v, errors.New("body must contain a single JSON document")
	}
	return v, nil
}

// writeParamError answers parameters the generated wrapper could not bind.
func writeParamError(w http.ResponseWriter, r *http.Request, err error) {
	problem.BadRequest(w, r, err.Error())
}

// writeBindError maps a decodeJSON failure.
func writeBindError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validate.ValidationError
	if errors.As(err, &verr) {
		writeValidation(w, r, verr)
		return
	}
	problem.BadRequest(w, r, err.Error())
}

func writeValidation(w http.ResponseWriter, r *http.Request, verr validate.ValidationError) {
	fields := make(map[string]string, len(verr.Errors()))
	for _, e := range verr.Errors() {
		fields[e.Field] = e.Message
	}
	problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeValidation, "Validation Failed",
		"VALIDATION_FAILED", verr.Error(), map[string]any{"fields": fields})
}

func writeInvalidBarcode(w http.ResponseWriter, r *http.Request, code string) {
	problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeValidation, "Invalid Barcode",
		"INVALID_BARCODE", "barcode must be digits only, at least 3 long, with a valid check digit where one applies",
		map[string]any{"barcode": code})
}

func writeNotConfigured(w http.ResponseWriter, r *http.Request, what string) {
	problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeNotConfigured, "Not Configured",
		"NOT_CONFIGURED", what+" is not available on this station", nil)
}

// writeUpstreamError maps Open Food Facts failures: unreachable is 503,
// anything else the server answered badly is 502.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Warn().Err(err).Str(log.FieldPath, r.URL.Path).Msg("upstream request failed")
	if offapi.IsNetwork(err) {
		w.Header().Set("Retry-After", "30")
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUpstream, "Upstream Unavailable",
			"UPSTREAM_UNAVAILABLE", "the product database cannot be reached", nil)
		return
	}
	problem.Write(w, r, http.StatusBadGateway, problem.TypeUpstream, "Bad Gateway",
		"UPSTREAM_ERROR", "the product database answered with an error", nil)
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).Str(log.FieldPath, r.URL.Path).Msg("request failed")
	problem.Internal(w, r)
}

// language picks ?lang=, then the first Accept-Language tag, then the default.
func (s *Server) language(r *http.Request, lang *Lang) string {
	if lang != nil {
		if v := strings.TrimSpace(*lang); v != "" {
			return v
		}
	}
	if al := r.Header.Get("Accept-Language"); al != "" {
		first, _, _ := strings.Cut(al, ",")
		first, _, _ = strings.Cut(first, ";")
		if first = strings.TrimSpace(first); first != "" && first != "*" {
			return first
		}
	}
	return s.config().Language
}
