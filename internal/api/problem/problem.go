// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/foodscan/internal/log"
)

const (
	HeaderRequestID  = "X-Request-ID"
	JSONKeyRequestID = "requestId"
	ContentType      = "application/problem+json"
)

// Problem types, relative to the API.
const (
	TypeBadRequest    = "request/invalid"
	TypeValidation    = "request/validation"
	TypeNotFound      = "resource/not_found"
	TypeConflict      = "resource/conflict"
	TypeRateLimited   = "request/rate_limited"
	TypeUnavailable   = "system/unavailable"
	TypeUpstream      = "upstream/unavailable"
	TypeInternal      = "system/internal"
	TypeNotConfigured = "system/not_configured"
)

// Write writes a problem response.
//
//   - type: machine identifier (e.g. "resource/not_found").
//   - title: short human label (e.g. "Not Found").
//   - code: stable short code (e.g. "NOT_FOUND").
//   - detail: explanation of this occurrence.
//
// Reserved keys in extra are ignored.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	instance := ""
	reqID := w.Header().Get(HeaderRequestID)
	if r != nil {
		instance = r.URL.EscapedPath()
		if id := log.RequestIDFromContext(r.Context()); id != "" {
			reqID = id
		}
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
		w.Header().Set(HeaderRequestID, reqID)
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}
	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			logger := log.WithComponent("api")
			logger.Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Str("type", problemType).Int(log.FieldStatus, status).Msg("failed to encode problem response")
	}
}

func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusBadRequest, TypeBadRequest, "Bad Request", "BAD_REQUEST", detail, nil)
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusNotFound, TypeNotFound, "Not Found", "NOT_FOUND", detail, nil)
}

func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, TypeInternal, "Internal Server Error", "INTERNAL",
		"An unexpected error occurred.", nil)
}
