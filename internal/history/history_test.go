package history

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (s *recordingSink) Publish(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func newRecorder(t *testing.T, sinks ...Sink) (*Recorder, *time.Time) {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:", sqlite.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r := NewRecorder(NewSQLiteStore(db), "sqlite", sinks...)
	r.now = func() time.Time { return clock }
	return r, &clock
}

func TestRecorder_AddBumpsCount(t *testing.T) {
	ctx := context.Background()
	r, clock := newRecorder(t)

	p := &offapi.Product{Code: "3017620422003", ProductName: "Nutella", NovaGroup: 4, NutriscoreGrade: "e"}
	require.NoError(t, r.Add(ctx, p))
	*clock = clock.Add(time.Hour)
	require.NoError(t, r.Add(ctx, &offapi.Product{Code: "5449000000996", ProductName: "Coca-Cola"}))
	*clock = clock.Add(time.Hour)
	require.NoError(t, r.Add(ctx, p))

	list, err := r.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "3017620422003", list[0].Barcode)
	assert.Equal(t, 2, list[0].ScanCount)
	assert.Equal(t, 4, list[0].NovaGroup)
	assert.Equal(t, *clock, list[0].LastSeen)
	assert.Equal(t, 1, list[1].ScanCount)

	limited, err := r.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecorder_RejectsProductWithoutCode(t *testing.T) {
	r, _ := newRecorder(t)
	assert.Error(t, r.Add(context.Background(), nil))
	assert.Error(t, r.Add(context.Background(), &offapi.Product{}))
}

func TestRecorder_SinkFailureDoesNotFailAdd(t *testing.T) {
	ok := &recordingSink{}
	bad := &recordingSink{err: errors.New("broker down")}
	r, _ := newRecorder(t, bad, ok)

	require.NoError(t, r.Add(context.Background(), &offapi.Product{Code: "123"}))
	assert.Len(t, bad.entries, 1)
	require.Len(t, ok.entries, 1)
	assert.Equal(t, "123", ok.entries[0].Barcode)
}

func TestRecorder_Clear(t *testing.T) {
	ctx := context.Background()
	r, _ := newRecorder(t)
	require.NoError(t, r.Add(ctx, &offapi.Product{Code: "123"}))
	require.NoError(t, r.Clear(ctx))
	list, err := r.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecorder_Export(t *testing.T) {
	ctx := context.Background()
	r, _ := newRecorder(t)
	require.NoError(t, r.Add(ctx, &offapi.Product{Code: "3017620422003", ProductName: "Nutella, 400g"}))

	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	n, err := r.Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "Nutella, 400g", records[1][1])
}
