// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package history records the products a station has shown.
package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/metrics"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/google/renameio/v2"
)

// Entry is one row of the scan history, keyed by barcode.
type Entry struct {
	Barcode        string    `json:"barcode"`
	Title          string    `json:"title"`
	Brands         string    `json:"brands,omitempty"`
	Quantity       string    `json:"quantity,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	NutritionGrade string    `json:"nutrition_grade,omitempty"`
	NovaGroup      int       `json:"nova_group,omitempty"`
	Ecoscore       string    `json:"ecoscore,omitempty"`
	ScanCount      int       `json:"scan_count"`
	LastSeen       time.Time `json:"last_seen"`
}

// EntryFromProduct converts a looked-up product.
func EntryFromProduct(p *offapi.Product, at time.Time) Entry {
	return Entry{
		Barcode:        p.Code,
		Title:          strings.TrimSpace(p.ProductName),
		Brands:         p.Brands,
		Quantity:       p.Quantity,
		ImageURL:       p.ImageFrontURL,
		NutritionGrade: p.NutriscoreGrade,
		NovaGroup:      int(p.NovaGroup),
		Ecoscore:       p.EcoscoreGrade,
		ScanCount:      1,
		LastSeen:       at.UTC(),
	}
}

// Store persists history entries. Upsert bumps ScanCount and LastSeen for a
// barcode that is already present.
type Store interface {
	Upsert(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
}

// Sink receives a copy of every recorded entry (e.g. an event stream).
type Sink interface {
	Publish(ctx context.Context, e Entry) error
}

// Recorder writes history to a store and fans entries out to sinks.
type Recorder struct {
	store   Store
	sinks   []Sink
	backend string
	now     func() time.Time
}

// NewRecorder creates a recorder over store. backend labels metrics.
func NewRecorder(store Store, backend string, sinks ...Sink) *Recorder {
	return &Recorder{store: store, sinks: sinks, backend: backend, now: time.Now}
}

// Add records a shown product. Sink failures are logged and do not fail Add.
func (r *Recorder) Add(ctx context.Context, p *offapi.Product) error {
	if p == nil || p.Code == "" {
		return errors.New("history: product without barcode")
	}
	e := EntryFromProduct(p, r.now())

	err := r.store.Upsert(ctx, e)
	metrics.RecordHistoryWrite(r.backend, err)
	if err != nil {
		return fmt.Errorf("history add %s: %w", e.Barcode, err)
	}

	for _, s := range r.sinks {
		serr := s.Publish(ctx, e)
		metrics.RecordHistoryWrite("sink", serr)
		if serr != nil {
			logger := log.WithComponentFromContext(ctx, "history")
			logger.Warn().Err(serr).Str(log.FieldBarcode, e.Barcode).Msg("history sink publish failed")
		}
	}
	return nil
}

// List returns the newest entries first.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	return r.store.List(ctx, limit)
}

// Clear removes every entry.
func (r *Recorder) Clear(ctx context.Context) error {
	return r.store.Clear(ctx)
}

var csvHeader = []string{"barcode", "title", "brands", "quantity", "nutrition_grade", "nova_group", "ecoscore", "scan_count", "last_seen"}

// Export writes the whole history as CSV to path. The file is replaced
// atomically, readers never observe a partial export.
func (r *Recorder) Export(ctx context.Context, path string) (int, error) {
	entries, err := r.store.List(ctx, 0)
	if err != nil {
		return 0, err
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("history export: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	w := csv.NewWriter(pf)
	if err := w.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := w.Write([]string{
			e.Barcode, e.Title, e.Brands, e.Quantity, e.NutritionGrade,
			strconv.Itoa(e.NovaGroup), e.Ecoscore, strconv.Itoa(e.ScanCount),
			e.LastSeen.UTC().Format(time.RFC3339),
		}); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("history export: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("history export: %w", err)
	}
	return len(entries), nil
}
