// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/foodscan/internal/api/problem"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/scan"
	"github.com/ManuGH/foodscan/internal/scan/prefs"
)

func (s *Server) writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, scan.ErrClosed) {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Session Closed",
			"SESSION_CLOSED", "the scan session is shutting down", nil)
		return
	}
	if errors.Is(err, scan.ErrFeedStopped) {
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Feed Stopped",
			"FEED_STOPPED", "the camera feed is stopped; resume scanning first", nil)
		return
	}
	writeInternal(w, r, err)
}

// IngestBarcode feeds a decoded barcode as the camera would.
func (s *Server) IngestBarcode(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[IngestBarcodeJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	format := req.Format
	if format == "" {
		format = s.config().IngestFormat
	}
	if err := s.deps.Scan.Ingest(r.Context(), req.Barcode, format); err != nil {
		s.writeScanError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.deps.Scan.Snapshot())
}

func (s *Server) EnterBarcode(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[EnterBarcodeJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	if err := s.deps.Scan.Manual(r.Context(), req.Barcode); err != nil {
		if errors.Is(err, scan.ErrInvalidBarcode) {
			writeInvalidBarcode(w, r, req.Barcode)
			return
		}
		s.writeScanError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.deps.Scan.Snapshot())
}

func (s *Server) ReportScanTrouble(w http.ResponseWriter, r *http.Request) {
	s.deps.Scan.Trouble(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ResumeScan(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Scan.Resume(r.Context()); err != nil {
		s.writeScanError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Scan.Snapshot())
}

// RefreshProduct repeats the lookup of the barcode on screen.
func (s *Server) RefreshProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[RefreshProductJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	if !s.deps.Scan.Refresh(r.Context(), req.Barcode) {
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Not Current",
			"BARCODE_NOT_CURRENT", "only the last scanned barcode can be refreshed",
			map[string]any{"barcode": req.Barcode})
		return
	}
	writeJSON(w, http.StatusAccepted, s.deps.Scan.Snapshot())
}

func (s *Server) GetScanState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Scan.Snapshot())
}

// SetScanState drives the workflow directly, as a camera view would.
func (s *Server) SetScanState(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[SetScanStateJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	if err := s.deps.Workflow.SetState(r.Context(), req.State); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Scan.Snapshot())
}

func (s *Server) currentPrefs(r *http.Request) (prefs.Prefs, error) {
	defaults := s.config().PrefDefaults
	if s.deps.Prefs == nil {
		return defaults, nil
	}
	return s.deps.Prefs.Load(r.Context(), defaults)
}

// cameraSettings reports the live camera when one is attached, the stored
// preferences otherwise. Beep always comes from the preferences.
func (s *Server) cameraSettings(p prefs.Prefs) CameraSettings {
	out := CameraSettings{Beep: p.Beep, Flash: p.Flash, Autofocus: p.AutoFocus, Facing: p.Facing.String()}
	if s.deps.Camera != nil {
		cs := s.deps.Camera.Settings()
		out.Facing = cs.Facing.String()
		out.Flash = cs.Flash
		out.Autofocus = cs.AutoFocus
		out.Attached = true
	}
	return out
}

func (s *Server) GetCameraSettings(w http.ResponseWriter, r *http.Request) {
	p, err := s.currentPrefs(r)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cameraSettings(p))
}

// UpdateCameraSettings stores the toggles and applies them to the live
// camera and the session.
func (s *Server) UpdateCameraSettings(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[UpdateCameraSettingsJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	p, err := s.currentPrefs(r)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if req.Flash != nil {
		p.Flash = *req.Flash
	}
	if req.Autofocus != nil {
		p.AutoFocus = *req.Autofocus
	}
	if req.Beep != nil {
		p.Beep = *req.Beep
	}
	if s.deps.Prefs != nil {
		if err := s.deps.Prefs.Save(r.Context(), p); err != nil {
			writeInternal(w, r, err)
			return
		}
	}
	if s.deps.Camera != nil {
		s.deps.Camera.UpdateFlash(p.Flash)
		s.deps.Camera.UpdateAutoFocus(p.AutoFocus)
	}
	s.deps.Scan.SetBeep(p.Beep)

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(log.FieldEvent, "camera.settings").
		Bool("flash", p.Flash).Bool("autofocus", p.AutoFocus).Bool("beep", p.Beep).
		Msg("scanner settings changed")
	writeJSON(w, http.StatusOK, s.cameraSettings(p))
}

func (s *Server) ToggleCamera(w http.ResponseWriter, r *http.Request) {
	if s.deps.Camera == nil {
		writeNotConfigured(w, r, "camera")
		return
	}
	facing, err := s.deps.Camera.ToggleCamera(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	p, err := s.currentPrefs(r)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	p.Facing = facing
	if s.deps.Prefs != nil {
		if err := s.deps.Prefs.Save(r.Context(), p); err != nil {
			writeInternal(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.cameraSettings(p))
}
