// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package camera

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrReleased is returned when a released source is started again.
var ErrReleased = errors.New("camera source released")

// ErrUnreadable marks a frame the decoder saw but could not read completely.
var ErrUnreadable = errors.New("barcode not readable")

// Facing selects the physical camera.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
)

func (f Facing) String() string {
	if f == FacingFront {
		return "front"
	}
	return "back"
}

// ParseFacing accepts "back" or "front".
func ParseFacing(v string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "back":
		return FacingBack, nil
	case "front":
		return FacingFront, nil
	}
	return FacingBack, fmt.Errorf("unknown camera facing %q", v)
}

// Toggle returns the other facing.
func (f Facing) Toggle() Facing {
	if f == FacingBack {
		return FacingFront
	}
	return FacingBack
}

// Settings is the scanner configuration applied on attach.
type Settings struct {
	Facing    Facing
	Flash     bool
	AutoFocus bool
}

// Frame is one decoder result. Err is set for partial reads.
type Frame struct {
	Value  string
	Format string
	Err    error
}

// Readable reports whether the frame carries a complete barcode.
func (f Frame) Readable() bool {
	return f.Err == nil && f.Value != ""
}

// Source is a camera feed with an attached decoder.
type Source interface {
	Start(ctx context.Context) error
	Stop() error
	Release() error
	SwitchCamera(Facing)
	SetFlash(bool)
	SetAutoFocus(bool)
	Frames() <-chan Frame
}

// Prompt is the hint overlay shown over the feed.
type Prompt interface {
	Show(text string)
	Hide()
}
