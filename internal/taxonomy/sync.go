// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/metrics"
	"github.com/ManuGH/foodscan/internal/offapi"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source downloads taxonomies. *offapi.Client implements it.
type Source interface {
	Taxonomy(ctx context.Context, name string, since time.Time) (*offapi.TaxonomyDocument, error)
	InvalidBarcodes(ctx context.Context, since time.Time) (*offapi.InvalidBarcodeList, error)
}

// Sync results per kind.
const (
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultError     = "error"
)

// Report maps each synchronised kind to its result.
type Report map[Kind]string

// Syncer downloads active taxonomies into a Store.
type Syncer struct {
	store       *Store
	src         Source
	flavor      string
	concurrency int
	now         func() time.Time

	group    singleflight.Group
	interval atomic.Int64
	kick     chan struct{}

	mu      sync.Mutex
	lastRun time.Time
	lastErr string
}

func NewSyncer(store *Store, src Source, flavor string, concurrency int) *Syncer {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Syncer{
		store:       store,
		src:         src,
		flavor:      flavor,
		concurrency: concurrency,
		now:         time.Now,
		kick:        make(chan struct{}, 1),
	}
}

// Sync downloads every kind active for the flavor. Concurrent callers share
// one run. Per-kind failures are joined into the returned error; the report
// is complete either way.
func (s *Syncer) Sync(ctx context.Context) (Report, error) {
	v, err, _ := s.group.Do("sync", func() (any, error) {
		return s.syncKinds(ctx, ActiveKinds(s.flavor))
	})
	rep, _ := v.(Report)
	return rep, err
}

// LastRun returns when a full sync last succeeded and the error of the most
// recent one, if it failed.
func (s *Syncer) LastRun() (time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// SyncKind downloads a single kind regardless of flavor.
func (s *Syncer) SyncKind(ctx context.Context, kind Kind) (string, error) {
	v, err, _ := s.group.Do("kind:"+string(kind), func() (any, error) {
		return s.syncOne(ctx, kind)
	})
	res, _ := v.(string)
	return res, err
}

func (s *Syncer) syncKinds(ctx context.Context, kinds []Kind) (Report, error) {
	logger := log.WithComponent("taxonomy")
	start := time.Now()

	var (
		mu   sync.Mutex
		rep  = Report{}
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, kind := range kinds {
		g.Go(func() error {
			res, err := s.syncOne(gctx, kind)
			mu.Lock()
			defer mu.Unlock()
			rep[kind] = res
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	err := errors.Join(errs...)
	s.mu.Lock()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastRun, s.lastErr = s.now(), ""
	}
	s.mu.Unlock()
	ev := logger.Info()
	if err != nil {
		ev = logger.Warn().Err(err)
	}
	ev.Str(log.FieldEvent, "taxonomy.sync").
		Int("kinds", len(kinds)).
		Int("failed", len(errs)).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("taxonomy sync finished")
	return rep, err
}

func (s *Syncer) syncOne(ctx context.Context, kind Kind) (res string, err error) {
	defer func() { metrics.RecordTaxonomySync(string(kind), res) }()

	since, err := s.store.LastSync(ctx, kind)
	if err != nil {
		return ResultError, err
	}

	if kind == KindInvalidBarcodes {
		list, err := s.src.InvalidBarcodes(ctx, since)
		if errors.Is(err, offapi.ErrNotModified) {
			return ResultUnchanged, nil
		}
		if err != nil {
			return ResultError, err
		}
		if err := s.store.ReplaceInvalidBarcodes(ctx, list.Codes); err != nil {
			return ResultError, err
		}
		metrics.SetTaxonomyEntries(string(kind), len(list.Codes))
		return ResultUpdated, s.store.MarkSynced(ctx, kind, syncStamp(list.LastModified, s.now()))
	}

	doc, err := s.src.Taxonomy(ctx, string(kind), since)
	if errors.Is(err, offapi.ErrNotModified) {
		return ResultUnchanged, nil
	}
	if err != nil {
		return ResultError, err
	}
	entries := EntriesFromDocument(doc)
	if err := s.store.Replace(ctx, kind, entries); err != nil {
		return ResultError, err
	}
	metrics.SetTaxonomyEntries(string(kind), len(entries))
	return ResultUpdated, s.store.MarkSynced(ctx, kind, syncStamp(doc.LastModified, s.now()))
}

func syncStamp(lastModified, now time.Time) time.Time {
	if lastModified.IsZero() {
		return now
	}
	return lastModified
}

// EntriesFromDocument converts a downloaded taxonomy into entries ordered by tag.
func EntriesFromDocument(doc *offapi.TaxonomyDocument) []Entry {
	if doc == nil {
		return nil
	}
	out := make([]Entry, 0, len(doc.Entries))
	for tag, node := range doc.Entries {
		out = append(out, Entry{
			Tag:      tag,
			Names:    node.Name,
			Wikidata: node.Wikidata,
			Parents:  node.Parents,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// SetInterval changes the refresh interval of a running scheduler. 0 stops
// periodic refreshes.
func (s *Syncer) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if time.Duration(s.interval.Swap(int64(d))) != d {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
}

// Run syncs once, then every interval until ctx is done.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	s.interval.Store(int64(interval))
	logger := log.WithComponent("taxonomy")
	if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("initial taxonomy sync incomplete")
	}

	for {
		var tick <-chan time.Time
		var timer *time.Timer
		if d := time.Duration(s.interval.Load()); d > 0 {
			timer = time.NewTimer(d)
			tick = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-s.kick:
			if timer != nil {
				timer.Stop()
			}
		case <-tick:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("scheduled taxonomy sync incomplete")
			}
		}
	}
}
