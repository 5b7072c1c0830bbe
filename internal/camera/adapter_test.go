// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package camera

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu       sync.Mutex
	starts   int
	stops    int
	released bool
	startErr error
	facing   Facing
	flash    bool
	focus    bool
	frames   chan Frame
}

func newFakeSource() *fakeSource {
	return &fakeSource{frames: make(chan Frame, 8)}
}

func (f *fakeSource) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeSource) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return nil
}

func (f *fakeSource) SwitchCamera(v Facing) { f.mu.Lock(); f.facing = v; f.mu.Unlock() }
func (f *fakeSource) SetFlash(v bool)       { f.mu.Lock(); f.flash = v; f.mu.Unlock() }
func (f *fakeSource) SetAutoFocus(v bool) {
	f.mu.Lock()
	f.focus = v
	f.mu.Unlock()
}
func (f *fakeSource) Frames() <-chan Frame { return f.frames }

func (f *fakeSource) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

type recordingPrompt struct {
	mu      sync.Mutex
	visible bool
	text    string
}

func (p *recordingPrompt) Show(text string) {
	p.mu.Lock()
	p.visible, p.text = true, text
	p.mu.Unlock()
}

func (p *recordingPrompt) Hide() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
}

func (p *recordingPrompt) get() (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible, p.text
}

func setup(t *testing.T) (*Adapter, *workflow.Model, *fakeSource, *recordingPrompt, chan string) {
	t.Helper()
	b := bus.NewMemoryBus()
	model := workflow.NewModel("test", b)
	prompt := &recordingPrompt{}
	got := make(chan string, 8)
	a := NewAdapter(model, prompt, func(_ context.Context, code string) { got <- code })
	src := newFakeSource()
	require.NoError(t, a.Attach(context.Background(), src, Settings{Facing: FacingBack, Flash: true}))
	t.Cleanup(func() {
		a.Detach()
		_ = b.Close()
	})
	return a, model, src, prompt, got
}

func TestAttachAppliesSettings(t *testing.T) {
	_, _, src, _, _ := setup(t)
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, FacingBack, src.facing)
	assert.True(t, src.flash)
	assert.False(t, src.focus)
}

func TestStartPreviewOnlyWhenNotLive(t *testing.T) {
	a, model, src, _, _ := setup(t)
	a.StartPreview(context.Background())
	a.StartPreview(context.Background())

	starts, _ := src.counts()
	assert.Equal(t, 1, starts)
	assert.True(t, model.IsCameraLive())

	a.StopPreview()
	a.StopPreview()
	_, stops := src.counts()
	assert.Equal(t, 1, stops)
	assert.False(t, model.IsCameraLive())
}

func TestStartFailureReleasesSource(t *testing.T) {
	a, model, src, _, _ := setup(t)
	src.startErr = errors.New("camera busy")

	a.StartPreview(context.Background())
	assert.False(t, a.Attached())
	assert.False(t, model.IsCameraLive())
	src.mu.Lock()
	assert.True(t, src.released)
	src.mu.Unlock()
}

func TestStateBroadcastDrivesPromptAndFeed(t *testing.T) {
	a, model, src, prompt, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, a.UpdateWorkflowState(ctx, workflow.Detecting))
	require.Eventually(t, func() bool {
		visible, text := prompt.get()
		return visible && text == PromptPointAtBarcode && model.IsCameraLive()
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.UpdateWorkflowState(ctx, workflow.Confirming))
	require.Eventually(t, func() bool {
		_, text := prompt.get()
		return text == PromptMoveCloser
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.UpdateWorkflowState(ctx, workflow.Detected))
	require.Eventually(t, func() bool { return !model.IsCameraLive() }, time.Second, 5*time.Millisecond)
	_, stops := src.counts()
	assert.Equal(t, 1, stops)

	require.NoError(t, a.UpdateWorkflowState(ctx, workflow.NotStarted))
	require.Eventually(t, func() bool {
		visible, _ := prompt.get()
		return !visible
	}, time.Second, 5*time.Millisecond)
}

func TestReadableFrameDetectsAndRoutesBarcode(t *testing.T) {
	a, model, src, _, got := setup(t)
	require.NoError(t, a.OnResume(context.Background()))
	require.Eventually(t, model.IsCameraLive, time.Second, 5*time.Millisecond)

	src.frames <- Frame{Value: "5449000000996", Format: "ean13"}

	select {
	case code := <-got:
		assert.Equal(t, "5449000000996", code)
	case <-time.After(time.Second):
		t.Fatal("barcode was not routed")
	}
	require.Eventually(t, func() bool { return model.State() == workflow.Detected }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !model.IsCameraLive() }, time.Second, 5*time.Millisecond)
}

func TestUnreadableFrameMovesToConfirming(t *testing.T) {
	a, model, src, prompt, got := setup(t)
	require.NoError(t, a.OnResume(context.Background()))

	src.frames <- Frame{Err: ErrUnreadable}
	require.Eventually(t, func() bool {
		_, text := prompt.get()
		return model.State() == workflow.Confirming && text == PromptMoveCloser
	}, time.Second, 5*time.Millisecond)

	select {
	case code := <-got:
		t.Fatalf("unexpected barcode %q", code)
	default:
	}
}

func TestFramesIgnoredBeforeProcessorInstalled(t *testing.T) {
	_, model, src, _, got := setup(t)
	src.frames <- Frame{Value: "123"}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, workflow.NotStarted, model.State())
	assert.Empty(t, got)
}

func TestToggleCameraSwitchesFacing(t *testing.T) {
	a, model, src, _, _ := setup(t)
	a.StartPreview(context.Background())

	facing, err := a.ToggleCamera(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FacingFront, facing)
	assert.True(t, model.IsCameraLive())

	starts, stops := src.counts()
	assert.Equal(t, 2, starts)
	assert.Equal(t, 1, stops)
	src.mu.Lock()
	assert.Equal(t, FacingFront, src.facing)
	src.mu.Unlock()
}

func TestOverlayClickResumesDetection(t *testing.T) {
	a, model, _, _, _ := setup(t)
	require.NoError(t, a.OverlayClick(context.Background()))
	assert.Equal(t, workflow.Detecting, model.State())
	assert.True(t, model.IsCameraLive())
}

func TestLineSourceDeliversOnlyWhileLive(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewLineSource(pr, "hid")
	t.Cleanup(func() { _ = src.Release() })

	require.NoError(t, src.Start(context.Background()))
	_, err := io.WriteString(pw, "3017620422003\n\n")
	require.NoError(t, err)

	select {
	case f := <-src.Frames():
		assert.True(t, f.Readable())
		assert.Equal(t, "3017620422003", f.Value)
		assert.Equal(t, "hid", f.Format)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	_, err = io.WriteString(pw, "\x00\x01\n")
	require.NoError(t, err)

	select {
	case f := <-src.Frames():
		assert.False(t, f.Readable())
		assert.ErrorIs(t, f.Err, ErrUnreadable)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	require.NoError(t, pw.Close())
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-src.Frames():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, src.Release())
	assert.ErrorIs(t, src.Start(context.Background()), ErrReleased)
}

func TestLineSourceDropsLinesWhileStopped(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewLineSource(pr, "hid")
	t.Cleanup(func() { _ = src.Release() })

	require.NoError(t, src.Start(context.Background()))
	require.NoError(t, src.Stop())
	_, err := io.WriteString(pw, "3017620422003\n")
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	for f := range src.Frames() {
		t.Fatalf("frame delivered while stopped: %+v", f)
	}
}

func TestChanSourceDropsWhenStopped(t *testing.T) {
	src := NewChanSource()
	t.Cleanup(func() { _ = src.Release() })

	assert.False(t, src.Push(Frame{Value: "1"}))
	require.NoError(t, src.Start(context.Background()))
	assert.True(t, src.Push(Frame{Value: "2"}))
	f := <-src.Frames()
	assert.Equal(t, "2", f.Value)

	require.NoError(t, src.Release())
	assert.False(t, src.Push(Frame{Value: "3"}))
}

func TestParseFacing(t *testing.T) {
	f, err := ParseFacing("FRONT")
	require.NoError(t, err)
	assert.Equal(t, FacingFront, f)
	f, err = ParseFacing("")
	require.NoError(t, err)
	assert.Equal(t, FacingBack, f)
	_, err = ParseFacing("side")
	assert.Error(t, err)
}
