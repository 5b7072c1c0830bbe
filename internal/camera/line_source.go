// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package camera

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/metrics"
)

const frameBuffer = 16

// LineSource reads one decoded barcode per line, the way keyboard-wedge and
// serial scanners deliver them. Lines read while the feed is stopped are dropped.
type LineSource struct {
	r      io.Reader
	format string
	frames chan Frame

	live     atomic.Bool
	released atomic.Bool
	start    sync.Once
	release  sync.Once

	mu       sync.Mutex
	settings Settings
}

// NewLineSource wraps r. format labels the frames (e.g. "ean13", "hid").
func NewLineSource(r io.Reader, format string) *LineSource {
	return &LineSource{r: r, format: format, frames: make(chan Frame, frameBuffer)}
}

func (s *LineSource) Start(ctx context.Context) error {
	if s.released.Load() {
		return ErrReleased
	}
	s.live.Store(true)
	s.start.Do(func() { go s.read() })
	return nil
}

func (s *LineSource) Stop() error {
	s.live.Store(false)
	return nil
}

// Release stops the feed and closes the underlying reader when it is a Closer.
// Frames is closed once the reader returns.
func (s *LineSource) Release() error {
	var err error
	s.release.Do(func() {
		s.released.Store(true)
		s.live.Store(false)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
		// Nobody will close frames if the reader never started.
		s.start.Do(func() { close(s.frames) })
	})
	return err
}

func (s *LineSource) SwitchCamera(f Facing) {
	s.mu.Lock()
	s.settings.Facing = f
	s.mu.Unlock()
}

func (s *LineSource) SetFlash(on bool) {
	s.mu.Lock()
	s.settings.Flash = on
	s.mu.Unlock()
}

func (s *LineSource) SetAutoFocus(on bool) {
	s.mu.Lock()
	s.settings.AutoFocus = on
	s.mu.Unlock()
}

// Settings returns the last applied settings.
func (s *LineSource) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *LineSource) Frames() <-chan Frame {
	return s.frames
}

func (s *LineSource) read() {
	defer close(s.frames)
	logger := log.WithComponent("camera")
	sc := bufio.NewScanner(s.r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !s.live.Load() {
			metrics.IncFrameDropped("stopped")
			continue
		}
		frame := Frame{Value: line, Format: s.format}
		if !printable(line) {
			frame = Frame{Format: s.format, Err: ErrUnreadable}
		}
		select {
		case s.frames <- frame:
		default:
			metrics.IncFrameDropped("busy")
		}
	}
	if err := sc.Err(); err != nil && !s.released.Load() {
		logger.Warn().Err(err).Msg("line source read failed")
	}
}

func printable(v string) bool {
	for _, r := range v {
		if !unicode.IsPrint(r) || r == unicode.ReplacementChar {
			return false
		}
	}
	return true
}

// ChanSource is a push-driven source fed by Push.
type ChanSource struct {
	frames   chan Frame
	live     atomic.Bool
	released atomic.Bool
	once     sync.Once
	mu       sync.RWMutex

	settingsMu sync.Mutex
	settings   Settings
}

func NewChanSource() *ChanSource {
	return &ChanSource{frames: make(chan Frame, frameBuffer)}
}

// Push offers a frame to the decoder. It reports false when the frame was dropped.
func (s *ChanSource) Push(f Frame) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.released.Load() {
		return false
	}
	if !s.live.Load() {
		metrics.IncFrameDropped("stopped")
		return false
	}
	select {
	case s.frames <- f:
		return true
	default:
		metrics.IncFrameDropped("busy")
		return false
	}
}

func (s *ChanSource) Start(ctx context.Context) error {
	if s.released.Load() {
		return ErrReleased
	}
	s.live.Store(true)
	return nil
}

func (s *ChanSource) Stop() error {
	s.live.Store(false)
	return nil
}

func (s *ChanSource) Release() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.released.Store(true)
		s.live.Store(false)
		close(s.frames)
		s.mu.Unlock()
	})
	return nil
}

// Live reports whether the feed is started.
func (s *ChanSource) Live() bool { return s.live.Load() }

func (s *ChanSource) SwitchCamera(f Facing) {
	s.settingsMu.Lock()
	s.settings.Facing = f
	s.settingsMu.Unlock()
}

func (s *ChanSource) SetFlash(on bool) {
	s.settingsMu.Lock()
	s.settings.Flash = on
	s.settingsMu.Unlock()
}

func (s *ChanSource) SetAutoFocus(on bool) {
	s.settingsMu.Lock()
	s.settings.AutoFocus = on
	s.settingsMu.Unlock()
}

// Settings returns the last applied settings.
func (s *ChanSource) Settings() Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings
}

func (s *ChanSource) Frames() <-chan Frame { return s.frames }

var (
	_ Source = (*LineSource)(nil)
	_ Source = (*ChanSource)(nil)
)
