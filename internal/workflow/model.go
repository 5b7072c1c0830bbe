// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workflow holds the scan phase and the last detected barcode and
// broadcasts both to independent subscribers.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/metrics"
)

const (
	TopicState   = "workflow.state"
	TopicBarcode = "workflow.barcode"
)

// Barcode is a decoded barcode read.
type Barcode struct {
	RawValue   string    `json:"raw_value"`
	Format     string    `json:"format,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}

// StateChange is broadcast on TopicState.
type StateChange struct {
	Session string    `json:"session"`
	From    State     `json:"from"`
	To      State     `json:"to"`
	At      time.Time `json:"at"`
}

// Model is the broadcast point for one scan session. Transitions are not
// validated: callers drive the order.
type Model struct {
	session string
	bus     bus.Bus

	mu      sync.RWMutex
	state   State
	barcode *Barcode

	live atomic.Bool
}

// NewModel creates a model for session publishing on b.
func NewModel(session string, b bus.Bus) *Model {
	return &Model{session: session, bus: b}
}

func (m *Model) topic(base string) string {
	return base + "." + m.session
}

// Session returns the session id the model broadcasts for.
func (m *Model) Session() string { return m.session }

// SetState records state as current and broadcasts it.
func (m *Model) SetState(ctx context.Context, state State) error {
	m.mu.Lock()
	prev := m.state
	m.state = state
	m.mu.Unlock()

	logger := log.WithComponentFromContext(ctx, "workflow")
	logger.Debug().
		Str(log.FieldSessionID, m.session).
		Str(log.FieldOldState, prev.String()).
		Str(log.FieldNewState, state.String()).
		Msg("workflow state")
	metrics.RecordWorkflowState(state.String())

	change := StateChange{Session: m.session, From: prev, To: state, At: time.Now()}
	if err := m.bus.Publish(ctx, m.topic(TopicState), change); err != nil {
		return fmt.Errorf("broadcast state %s: %w", state, err)
	}
	return nil
}

// SetDetectedBarcode records barcode as the latest detection and broadcasts it.
func (m *Model) SetDetectedBarcode(ctx context.Context, barcode Barcode) error {
	if barcode.DetectedAt.IsZero() {
		barcode.DetectedAt = time.Now()
	}
	m.mu.Lock()
	b := barcode
	m.barcode = &b
	m.mu.Unlock()

	if err := m.bus.Publish(ctx, m.topic(TopicBarcode), barcode); err != nil {
		return fmt.Errorf("broadcast barcode: %w", err)
	}
	return nil
}

// State returns the current phase.
func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastBarcode returns the latest detection, if any.
func (m *Model) LastBarcode() (Barcode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.barcode == nil {
		return Barcode{}, false
	}
	return *m.barcode, true
}

// SubscribeStates follows state changes until ctx ends or the subscription is closed.
func (m *Model) SubscribeStates(ctx context.Context) (bus.Subscriber, error) {
	return m.bus.Subscribe(ctx, m.topic(TopicState), bus.WithConflation())
}

// SubscribeBarcodes follows barcode detections until ctx ends or the subscription is closed.
func (m *Model) SubscribeBarcodes(ctx context.Context) (bus.Subscriber, error) {
	return m.bus.Subscribe(ctx, m.topic(TopicBarcode))
}

func (m *Model) MarkCameraLive() {
	m.live.Store(true)
	metrics.SetCameraLive(true)
}

func (m *Model) MarkCameraFrozen() {
	m.live.Store(false)
	metrics.SetCameraLive(false)
}

func (m *Model) IsCameraLive() bool {
	return m.live.Load()
}
