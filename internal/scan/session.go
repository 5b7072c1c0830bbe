// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scan sequences product lookups for barcodes read at a scan station.
//
// At most one lookup is in flight per session. Starting a lookup cancels the
// previous one, and every result is checked against the session generation
// before it is shown, so a stale lookup never updates the screen.
package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/metrics"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/offline"
	"github.com/ManuGH/foodscan/internal/summary"
	"github.com/ManuGH/foodscan/internal/telemetry"
	"github.com/ManuGH/foodscan/internal/validate"
	"github.com/ManuGH/foodscan/internal/workflow"
)

// TopicView carries View updates; the session id is appended.
const TopicView = "scan.view"

const (
	publishTimeout = time.Second
	historyTimeout = 10 * time.Second
)

var (
	ErrInvalidBarcode = validate.ErrInvalidBarcode
	ErrClosed         = errors.New("scan session closed")
	ErrStarted        = errors.New("scan session already started")
	ErrFeedStopped    = errors.New("camera feed stopped")
)

// Lookup outcomes, used as metric labels.
const (
	OutcomeFound           = "found"
	OutcomeOffline         = "offline"
	OutcomeNotFound        = "not_found"
	OutcomeAddOffline      = "add_offline"
	OutcomeConnectionError = "connection_error"
	OutcomeCancelled       = "cancelled"
)

// ProductSource fetches products. *offapi.Client implements it.
type ProductSource interface {
	ProductFor(ctx context.Context, code, purpose string) (*offapi.ProductState, error)
}

type OfflineStore interface {
	Get(ctx context.Context, barcode string) (*offline.Product, error)
}

type HistoryRecorder interface {
	Add(ctx context.Context, p *offapi.Product) error
}

type AllergenMatcher interface {
	Allergens(ctx context.Context, p *offapi.Product, lang string) (summary.AllergenMatch, error)
}

// Blocklist knows barcodes that must be ignored.
type Blocklist interface {
	IsInvalidBarcode(ctx context.Context, code string) bool
}

// Options are the tunables of a session. They can change while it runs.
type Options struct {
	// HintTimeout delays the search-by-barcode hint; 0 disables it.
	HintTimeout time.Duration
	// AutoResume returns to detecting this long after a lookup resolved; 0 never.
	AutoResume     time.Duration
	StrictBarcodes bool
	Language       string
	Beep           bool
}

// Deps are the collaborators of a session. Only Model, Bus and Products are
// required.
type Deps struct {
	Model     *workflow.Model
	Bus       bus.Bus
	Products  ProductSource
	Offline   OfflineStore
	History   HistoryRecorder
	Allergens AllergenMatcher
	Blocklist Blocklist
}

// Snapshot is the observable state of a session.
type Snapshot struct {
	Session     string         `json:"session"`
	State       workflow.State `json:"state"`
	CameraLive  bool           `json:"camera_live"`
	LastBarcode string         `json:"last_barcode,omitempty"`
	Generation  uint64         `json:"generation"`
	View        *View          `json:"view,omitempty"`
}

// Session sequences lookups for one scan station.
type Session struct {
	id        string
	model     *workflow.Model
	bus       bus.Bus
	products  ProductSource
	offline   OfflineStore
	history   HistoryRecorder
	allergens AllergenMatcher
	blocklist Blocklist
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu      sync.Mutex
	opts    Options
	routed  bool
	feed    Feed
	base    context.Context
	stop    context.CancelFunc
	closed  bool
	last    string
	gen     uint64
	cancel  context.CancelFunc
	current View
	showing bool

	hint      *time.Timer
	hintToken uint64
	resume    *time.Timer

	wg sync.WaitGroup
}

// New creates a session for the model's session id.
func New(deps Deps, opts Options) *Session {
	id := deps.Model.Session()
	return &Session{
		id:        id,
		model:     deps.Model,
		bus:       deps.Bus,
		products:  deps.Products,
		offline:   deps.Offline,
		history:   deps.History,
		allergens: deps.Allergens,
		blocklist: deps.Blocklist,
		logger:    log.WithComponent("scan").With().Str(log.FieldSessionID, id).Logger(),
		tracer:    telemetry.Tracer("foodscan/scan"),
		now:       time.Now,
		opts:      opts,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

func (s *Session) topic() string { return TopicView + "." + s.id }

// Start arms the hint timer and follows product refresh events until ctx is
// done or Close is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.base != nil {
		return ErrStarted
	}
	s.base, s.stop = context.WithCancel(ctx)

	sub, err := s.bus.Subscribe(s.base, offline.TopicProductRefresh)
	if err != nil {
		s.stop()
		s.base, s.stop = nil, nil
		return err
	}
	base := s.base
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer sub.Close()
		s.followRefreshes(base, sub)
	}()

	s.armHintLocked()
	s.logger.Info().
		Dur("hint_timeout", s.opts.HintTimeout).
		Dur("auto_resume", s.opts.AutoResume).
		Msg("scan session started")
	return nil
}

// Close cancels the lookup in flight, stops timers and waits for background work.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopHintLocked()
	s.stopResumeLocked()
	if s.cancel != nil {
		s.cancel()
	}
	if s.stop != nil {
		s.stop()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// SetOptions replaces the tunables. A running hint timer keeps its deadline.
func (s *Session) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

func (s *Session) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetBeep toggles the beep emitted for accepted barcodes.
func (s *Session) SetBeep(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Beep = on
}

// RoutedByCamera tells Ingest that an attached camera adapter forwards
// workflow barcodes to OnBarcode.
func (s *Session) RoutedByCamera(routed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routed = routed
}

// Feed accepts decoded barcodes on behalf of a camera source. Push reports
// false when the read was dropped because the feed is stopped or busy.
type Feed interface {
	Push(code, format string) bool
}

// FeedFunc adapts a function to Feed.
type FeedFunc func(code, format string) bool

func (f FeedFunc) Push(code, format string) bool { return f(code, format) }

// SetFeed makes Ingest hand barcodes to a camera feed instead of the
// workflow. A nil feed restores the direct path.
func (s *Session) SetFeed(feed Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = feed
}

// SubscribeViews follows the session's view updates.
func (s *Session) SubscribeViews(ctx context.Context, opts ...bus.SubscribeOption) (bus.Subscriber, error) {
	return s.bus.Subscribe(ctx, s.topic(), opts...)
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Session:     s.id,
		State:       s.model.State(),
		CameraLive:  s.model.IsCameraLive(),
		LastBarcode: s.last,
		Generation:  s.gen,
	}
	if s.current.Kind != "" {
		v := s.current
		snap.View = &v
	}
	return snap
}

// LastBarcode returns the last barcode a lookup was started for.
func (s *Session) LastBarcode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Ingest feeds a decoded barcode as the camera would. With a feed set the
// barcode goes through the camera's frame processor and ErrFeedStopped is
// returned when the feed dropped it. Otherwise the workflow moves to detected
// and broadcasts it, and without a camera adapter routing workflow barcodes
// the session handles the barcode directly.
func (s *Session) Ingest(ctx context.Context, code, format string) error {
	code = strings.TrimSpace(code)
	s.mu.Lock()
	feed, closed := s.feed, s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if feed != nil {
		if !feed.Push(code, format) {
			metrics.RecordScan("feed_stopped")
			return ErrFeedStopped
		}
		return nil
	}

	if err := s.model.SetState(ctx, workflow.Detected); err != nil {
		return err
	}
	if err := s.model.SetDetectedBarcode(ctx, workflow.Barcode{RawValue: code, Format: format, DetectedAt: s.now()}); err != nil {
		return err
	}
	s.mu.Lock()
	routed := s.routed
	s.mu.Unlock()
	if !routed {
		s.OnBarcode(ctx, code)
	}
	return nil
}

// OnBarcode is the barcode callback. It always cancels the hint timer, then
// ignores empty, repeated and blocklisted codes and looks up the rest.
func (s *Session) OnBarcode(ctx context.Context, code string) {
	s.mu.Lock()
	s.stopHintLocked()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if code == "" {
		s.mu.Unlock()
		metrics.RecordScan("empty")
		return
	}
	if code == s.last {
		s.mu.Unlock()
		metrics.RecordScan("duplicate")
		return
	}
	s.mu.Unlock()

	if s.blocklist != nil && s.blocklist.IsInvalidBarcode(ctx, code) {
		metrics.RecordScan("invalid")
		s.logger.Debug().Str(log.FieldBarcode, code).Msg("ignoring blocklisted barcode")
		return
	}

	s.mu.Lock()
	if s.closed || code == s.last {
		s.mu.Unlock()
		metrics.RecordScan("duplicate")
		return
	}
	if s.opts.Beep {
		s.publishLocked(View{Kind: ViewBeep, Barcode: code})
	}
	s.last = code
	s.mu.Unlock()

	metrics.RecordScan("accepted")
	s.show(code)
}

// Manual looks up a barcode typed by the user. Unlike scanned barcodes a
// repeated code is looked up again.
func (s *Session) Manual(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	s.mu.Lock()
	s.stopHintLocked()
	strict := s.opts.StrictBarcodes
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := validate.Barcode(code, strict); err != nil {
		metrics.RecordScan("rejected")
		return err
	}
	metrics.RecordScan("manual")

	s.mu.Lock()
	s.last = code
	s.mu.Unlock()
	s.show(code)
	return nil
}

// Trouble is the "having trouble scanning" action: it offers manual entry.
func (s *Session) Trouble(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopHintLocked()
	if s.closed {
		return
	}
	s.publishLocked(View{Kind: ViewManualEntry})
}

// Refresh looks the product up again when code is the last barcode. It
// reports whether a lookup was started.
func (s *Session) Refresh(_ context.Context, code string) bool {
	s.mu.Lock()
	match := !s.closed && code != "" && code == s.last
	s.mu.Unlock()
	if !match {
		return false
	}
	s.show(code)
	return true
}

// Resume dismisses the product card and returns the workflow to detecting.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopResumeLocked()
	s.showing = false
	s.current = View{}
	s.armHintLocked()
	s.mu.Unlock()

	return s.model.SetState(ctx, workflow.Detecting)
}

func (s *Session) followRefreshes(ctx context.Context, sub bus.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if code, ok := msg.(string); ok && s.Refresh(ctx, code) {
				s.logger.Debug().Str(log.FieldBarcode, code).Msg("product refreshed after local change")
			}
		}
	}
}

// show cancels the lookup in flight, shows the saved copy of code if any and
// starts the remote lookup.
func (s *Session) show(code string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.stopResumeLocked()
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(s.parentLocked())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	start := s.now()
	saved := s.readOffline(ctx, code)
	if saved != nil {
		q := offlineQuickView(saved)
		s.emit(ctx, gen, View{Kind: ViewOfflineProduct, Barcode: code, Offline: saved, Quick: &q})
	}
	s.emit(ctx, gen, View{Kind: ViewLoading, Barcode: code})

	go func() {
		defer s.wg.Done()
		defer cancel()
		s.lookup(ctx, gen, code, saved, start)
	}()
}

func (s *Session) lookup(ctx context.Context, gen uint64, code string, saved *offline.Product, start time.Time) {
	ctx, span := s.tracer.Start(ctx, "foodscan.scan.lookup",
		trace.WithAttributes(telemetry.ScanAttributes(s.id, code, gen)...))
	defer span.End()

	ps, err := s.products.ProductFor(ctx, code, offapi.PurposeScan)

	outcome := OutcomeCancelled
	shown := false
	switch {
	case ctx.Err() != nil || errors.Is(err, offapi.ErrCanceled):
	case err != nil && offapi.IsNetwork(err):
		if fresh := s.readOffline(ctx, code); fresh != nil {
			q := offlineQuickView(fresh)
			outcome = OutcomeOffline
			shown = s.emit(ctx, gen, View{Kind: ViewOfflineProduct, Barcode: code, Offline: fresh, Quick: &q})
		} else {
			outcome = OutcomeAddOffline
			shown = s.emit(ctx, gen, View{Kind: ViewAddProductOffline, Barcode: code})
		}
	case err != nil:
		outcome = OutcomeConnectionError
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		shown = s.emit(ctx, gen, View{Kind: ViewConnectionError, Barcode: code})
	case !ps.Found():
		if saved != nil {
			q := offlineQuickView(saved)
			outcome = OutcomeOffline
			shown = s.emit(ctx, gen, View{Kind: ViewOfflineProduct, Barcode: code, Offline: saved, Quick: &q})
		} else {
			outcome = OutcomeNotFound
			shown = s.emit(ctx, gen, View{Kind: ViewNotFound, Barcode: code})
		}
	default:
		q := NewQuickView(ps.Product, saved)
		outcome = OutcomeFound
		shown = s.emit(ctx, gen, View{Kind: ViewProduct, Barcode: code, Product: ps.Product, Offline: saved, Quick: &q})
		if shown {
			s.recordHistory(ps.Product)
			s.warnAllergens(ctx, gen, code, ps.Product)
		}
	}
	if !shown {
		outcome = OutcomeCancelled
	}

	elapsed := s.now().Sub(start)
	metrics.RecordLookup(outcome, elapsed)
	span.SetAttributes(attribute.String("scan.outcome", outcome))

	ev := s.logger.Info()
	if outcome == OutcomeConnectionError {
		ev = s.logger.Warn().Err(err)
	} else if outcome == OutcomeCancelled {
		ev = s.logger.Debug()
	}
	ev.Str(log.FieldBarcode, code).
		Uint64(log.FieldGeneration, gen).
		Str(log.FieldOutcome, outcome).
		Dur(log.FieldDuration, elapsed).
		Msg("lookup finished")

	if shown {
		s.scheduleResume(gen)
	}
}

func (s *Session) readOffline(ctx context.Context, code string) *offline.Product {
	if s.offline == nil {
		return nil
	}
	p, err := s.offline.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, offline.ErrNotFound) && ctx.Err() == nil {
			s.logger.Warn().Err(err).Str(log.FieldBarcode, code).Msg("read offline product")
		}
		return nil
	}
	return p
}

// recordHistory adds p to the history without holding up the lookup.
func (s *Session) recordHistory(p *offapi.Product) {
	if s.history == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	parent := s.parentLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), historyTimeout)
		defer cancel()
		if err := s.history.Add(ctx, p); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldBarcode, p.Code).Msg("record history")
		}
	}()
}

func (s *Session) warnAllergens(ctx context.Context, gen uint64, code string, p *offapi.Product) {
	if s.allergens == nil {
		return
	}
	s.mu.Lock()
	lang := s.opts.Language
	s.mu.Unlock()

	match, err := s.allergens.Allergens(ctx, p, lang)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Str(log.FieldBarcode, code).Msg("match allergens")
		}
		return
	}
	if match.Warn() {
		s.emit(ctx, gen, View{Kind: ViewAllergenWarning, Barcode: code, Allergens: &match})
	}
}

// emit publishes v unless the lookup of generation gen was superseded or
// cancelled.
func (s *Session) emit(ctx context.Context, gen uint64, v View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen || ctx.Err() != nil {
		return false
	}
	v.Generation = gen
	s.publishLocked(v)
	return true
}

func (s *Session) publishLocked(v View) {
	v.Session = s.id
	v.At = s.now()
	if !v.Kind.transient() {
		s.current = v
		if v.Kind.showsProduct() {
			s.showing = true
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.bus.Publish(ctx, s.topic(), v); err != nil {
		s.logger.Debug().Err(err).Str("kind", string(v.Kind)).Msg("view update not delivered")
	}
}

func (s *Session) parentLocked() context.Context {
	if s.base == nil {
		return context.Background()
	}
	return s.base
}

func (s *Session) armHintLocked() {
	s.stopHintLocked()
	d := s.opts.HintTimeout
	if d <= 0 || s.closed {
		return
	}
	token := s.hintToken
	s.hint = time.AfterFunc(d, func() { s.fireHint(token) })
}

func (s *Session) stopHintLocked() {
	if s.hint != nil {
		s.hint.Stop()
		s.hint = nil
	}
	s.hintToken++
}

func (s *Session) fireHint(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || token != s.hintToken {
		return
	}
	s.hint = nil
	if s.showing {
		return
	}
	metrics.IncHintShown()
	s.publishLocked(View{Kind: ViewHint})
}

func (s *Session) scheduleResume(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.opts.AutoResume
	if d <= 0 || s.closed || gen != s.gen {
		return
	}
	s.stopResumeLocked()
	s.resume = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed || gen != s.gen {
			s.mu.Unlock()
			return
		}
		parent := s.parentLocked()
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		if err := s.Resume(parent); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Debug().Err(err).Msg("auto resume")
		}
	})
}

func (s *Session) stopResumeLocked() {
	if s.resume != nil {
		s.resume.Stop()
		s.resume = nil
	}
}
