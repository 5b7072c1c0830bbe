// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/log"
)

// SSE event names.
const (
	eventSnapshot = "snapshot"
	eventView     = "view"
	eventState    = "state"
)

const viewStreamBuffer = 64

// sseWriter frames server-sent events with increasing ids.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      uint64
}

func (s *sseWriter) event(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.id++
	if _, err := fmt.Fprintf(s.w, "id: %s\nevent: %s\ndata: %s\n\n", strconv.FormatUint(s.id, 10), name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// StreamScanEvents streams a snapshot, then every view update and workflow state
// change until the client goes away. Slow clients lose their oldest pending
// updates instead of stalling the session.
func (s *Server) StreamScanEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeNotConfigured(w, r, "streaming")
		return
	}
	ctx := r.Context()
	logger := log.WithComponentFromContext(ctx, "api")

	views, err := s.deps.Scan.SubscribeViews(ctx, bus.WithBuffer(viewStreamBuffer), bus.WithConflation())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	defer func() { _ = views.Close() }()
	states, err := s.deps.Workflow.SubscribeStates(ctx)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	defer func() { _ = states.Close() }()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sse := &sseWriter{w: w, flusher: flusher}
	if err := sse.event(eventSnapshot, s.deps.Scan.Snapshot()); err != nil {
		return
	}
	logger.Debug().Str(log.FieldEvent, "events.subscribed").Msg("event stream opened")

	heartbeat := time.NewTicker(s.config().Heartbeat)
	defer heartbeat.Stop()
	for {
		var err error
		select {
		case <-ctx.Done():
			logger.Debug().Str(log.FieldEvent, "events.closed").Msg("event stream closed")
			return
		case msg, ok := <-views.C():
			if !ok {
				return
			}
			err = sse.event(eventView, msg)
		case msg, ok := <-states.C():
			if !ok {
				return
			}
			err = sse.event(eventState, msg)
		case <-heartbeat.C:
			err = sse.comment("keep-alive")
		}
		if err != nil {
			return
		}
	}
}
