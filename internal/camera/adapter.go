// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package camera adapts a barcode-decoding feed to the scan workflow: it
// starts and stops the feed and the hint prompt as the workflow state changes
// and routes decoded barcodes to the session.
package camera

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/workflow"
)

const (
	PromptPointAtBarcode = "Point your camera at a barcode"
	PromptMoveCloser     = "Move the camera closer"
)

// ErrNotAttached is returned by operations that need an attached source.
var ErrNotAttached = errors.New("camera not attached")

// BarcodeFunc receives every barcode broadcast by the workflow.
type BarcodeFunc func(ctx context.Context, barcode string)

// Adapter owns the feed of one scan session.
type Adapter struct {
	model     *workflow.Model
	prompt    Prompt
	onBarcode BarcodeFunc
	logger    zerolog.Logger

	mu        sync.Mutex
	source    Source
	settings  Settings
	processor bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAdapter wires an adapter to model. prompt and onBarcode may be nil.
func NewAdapter(model *workflow.Model, prompt Prompt, onBarcode BarcodeFunc) *Adapter {
	if prompt == nil {
		prompt = nopPrompt{}
	}
	return &Adapter{
		model:     model,
		prompt:    prompt,
		onBarcode: onBarcode,
		logger:    log.WithComponent("camera").With().Str(log.FieldSessionID, model.Session()).Logger(),
	}
}

// Attach applies settings to src and starts observing the workflow. The
// observers run until Detach or until ctx is cancelled.
func (a *Adapter) Attach(ctx context.Context, src Source, settings Settings) error {
	if src == nil {
		return errors.New("camera: nil source")
	}
	states, err := a.model.SubscribeStates(ctx)
	if err != nil {
		return err
	}
	barcodes, err := a.model.SubscribeBarcodes(ctx)
	if err != nil {
		_ = states.Close()
		return err
	}

	src.SwitchCamera(settings.Facing)
	src.SetFlash(settings.Flash)
	src.SetAutoFocus(settings.AutoFocus)

	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.source = src
	a.settings = settings
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		defer states.Close()
		a.observeStates(runCtx, states)
	}()
	go func() {
		defer a.wg.Done()
		defer barcodes.Close()
		a.routeBarcodes(runCtx, barcodes)
	}()
	go func() {
		defer a.wg.Done()
		a.processFrames(runCtx, src.Frames())
	}()

	a.logger.Info().
		Str("facing", settings.Facing.String()).
		Bool("flash", settings.Flash).
		Bool("autofocus", settings.AutoFocus).
		Msg("camera attached")
	return nil
}

// Detach stops the preview, releases the source and waits for the observers.
func (a *Adapter) Detach() {
	a.StopPreview()

	a.mu.Lock()
	src := a.source
	a.source = nil
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if src != nil {
		if err := src.Release(); err != nil {
			a.logger.Warn().Err(err).Msg("camera release failed")
		}
	}
	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
}

// OnResume freezes the camera flag, installs the frame processor and moves
// the workflow back to detecting.
func (a *Adapter) OnResume(ctx context.Context) error {
	a.model.MarkCameraFrozen()
	a.mu.Lock()
	a.processor = true
	a.mu.Unlock()
	return a.model.SetState(ctx, workflow.Detecting)
}

// StartPreview starts the feed unless it is already live. A source that fails
// to start is released and forgotten.
func (a *Adapter) StartPreview(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.source == nil || a.model.IsCameraLive() {
		return
	}
	a.model.MarkCameraLive()
	if err := a.source.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg("failed to start camera preview")
		a.model.MarkCameraFrozen()
		_ = a.source.Release()
		a.source = nil
	}
}

// StopPreview stops the feed if it is live.
func (a *Adapter) StopPreview() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.model.IsCameraLive() {
		return
	}
	a.model.MarkCameraFrozen()
	if a.source != nil {
		if err := a.source.Stop(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to stop camera preview")
		}
	}
}

// ToggleCamera switches between the back and front camera and returns the new facing.
func (a *Adapter) ToggleCamera(ctx context.Context) (Facing, error) {
	a.StopPreview()
	a.mu.Lock()
	if a.source == nil {
		a.mu.Unlock()
		return a.settings.Facing, ErrNotAttached
	}
	a.settings.Facing = a.settings.Facing.Toggle()
	facing := a.settings.Facing
	a.source.SwitchCamera(facing)
	a.mu.Unlock()
	a.StartPreview(ctx)
	return facing, nil
}

func (a *Adapter) UpdateFlash(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings.Flash = on
	if a.source != nil {
		a.source.SetFlash(on)
	}
}

func (a *Adapter) UpdateAutoFocus(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings.AutoFocus = on
	if a.source != nil {
		a.source.SetAutoFocus(on)
	}
}

func (a *Adapter) UpdateWorkflowState(ctx context.Context, state workflow.State) error {
	return a.model.SetState(ctx, state)
}

// OverlayClick resumes detection after the user dismissed the result.
func (a *Adapter) OverlayClick(ctx context.Context) error {
	if err := a.model.SetState(ctx, workflow.Detecting); err != nil {
		return err
	}
	a.StartPreview(ctx)
	return nil
}

// Settings returns the current scanner settings.
func (a *Adapter) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// Attached reports whether a source is attached.
func (a *Adapter) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source != nil
}

func (a *Adapter) observeStates(ctx context.Context, sub bus.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			change, ok := msg.(workflow.StateChange)
			if !ok {
				continue
			}
			switch change.To {
			case workflow.Detecting:
				a.prompt.Show(PromptPointAtBarcode)
				a.StartPreview(ctx)
			case workflow.Confirming:
				a.prompt.Show(PromptMoveCloser)
				a.StartPreview(ctx)
			case workflow.Detected:
				a.StopPreview()
			case workflow.NotStarted:
				a.prompt.Hide()
			}
		}
	}
}

func (a *Adapter) routeBarcodes(ctx context.Context, sub bus.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			barcode, ok := msg.(workflow.Barcode)
			if !ok || barcode.RawValue == "" {
				continue
			}
			a.logger.Info().Str(log.FieldBarcode, barcode.RawValue).Msg("barcode detected")
			if a.onBarcode != nil {
				a.onBarcode(ctx, barcode.RawValue)
			}
		}
	}
}

// processFrames is the decoder loop. Readable frames move the workflow to
// detected and broadcast the barcode, partial reads ask the user to move closer.
func (a *Adapter) processFrames(ctx context.Context, frames <-chan Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			a.mu.Lock()
			installed := a.processor
			a.mu.Unlock()
			if !installed {
				continue
			}
			if !frame.Readable() {
				if err := a.model.SetState(ctx, workflow.Confirming); err != nil {
					a.logger.Debug().Err(err).Msg("confirming broadcast failed")
				}
				continue
			}
			if err := a.model.SetState(ctx, workflow.Detected); err != nil {
				a.logger.Debug().Err(err).Msg("detected broadcast failed")
			}
			if err := a.model.SetDetectedBarcode(ctx, workflow.Barcode{RawValue: frame.Value, Format: frame.Format}); err != nil {
				a.logger.Debug().Err(err).Msg("barcode broadcast failed")
			}
		}
	}
}

type nopPrompt struct{}

func (nopPrompt) Show(string) {}
func (nopPrompt) Hide()       {}
