package taxonomy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func allergens() []Entry {
	return []Entry{
		{Tag: "en:gluten", Names: map[string]string{"en": "Gluten", "fr": "Gluten"}},
		{Tag: "en:milk", Names: map[string]string{"en": "Milk", "fr": "Lait"}},
		{Tag: "en:nuts", Names: map[string]string{"en": "Nuts"}},
	}
}

func TestActiveKinds(t *testing.T) {
	off := ActiveKinds("off")
	assert.Contains(t, off, KindAllergens)
	assert.Contains(t, off, KindInvalidBarcodes)
	assert.NotContains(t, ActiveKinds("opf"), KindAllergens)
	assert.Empty(t, ActiveKinds("unknown"))

	_, err := ParseKind("labels")
	require.NoError(t, err)
	_, err = ParseKind("nope")
	require.Error(t, err)
}

func TestStore_NameFallback(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.SaveAllergens(ctx, allergens()))

	name, ok := s.Name(ctx, KindAllergens, "en:milk", "fr")
	assert.True(t, ok)
	assert.Equal(t, "Lait", name)

	name, ok = s.Name(ctx, KindAllergens, "en:nuts", "fr")
	assert.True(t, ok)
	assert.Equal(t, "Nuts", name)

	_, ok = s.Name(ctx, KindAllergens, "en:celery", "fr")
	assert.False(t, ok)
}

func TestStore_AllergenFlagsSurviveReplace(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.SaveAllergens(ctx, allergens()))
	require.NoError(t, s.SetAllergenEnabled(ctx, "en:milk", true))
	require.ErrorIs(t, s.SetAllergenEnabled(ctx, "en:celery", true), ErrNotFound)

	enabled, err := s.EnabledAllergens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en:milk"}, enabled)

	require.NoError(t, s.SaveAllergens(ctx, allergens()[1:]))
	enabled, err = s.EnabledAllergens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"en:milk"}, enabled)

	n, err := s.Count(ctx, KindAllergens)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_AllergenNames(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.SaveAllergens(ctx, allergens()))
	require.NoError(t, s.SetAllergenEnabled(ctx, "en:gluten", true))

	fr, err := s.AllergensByLanguage(ctx, "fr")
	require.NoError(t, err)
	want := []AllergenName{
		{Tag: "en:gluten", Name: "Gluten", Enabled: true},
		{Tag: "en:milk", Name: "Lait"},
	}
	if diff := cmp.Diff(want, fr); diff != "" {
		t.Fatalf("allergens (-want +got):\n%s", diff)
	}

	disabled, err := s.AllergenNames(ctx, false, "en")
	require.NoError(t, err)
	require.Len(t, disabled, 2)
	assert.Equal(t, "Milk", disabled[0].Name)
	assert.Equal(t, "Nuts", disabled[1].Name)
}

func TestStore_InvalidBarcodesAndSyncTime(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	require.NoError(t, s.ReplaceInvalidBarcodes(ctx, []string{"0000", " ", "123"}))
	assert.True(t, s.IsInvalidBarcode(ctx, "0000"))
	assert.False(t, s.IsInvalidBarcode(ctx, "3017620422003"))

	require.NoError(t, s.ReplaceInvalidBarcodes(ctx, []string{"123"}))
	assert.False(t, s.IsInvalidBarcode(ctx, "0000"))

	at, err := s.LastSync(ctx, KindLabels)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkSynced(ctx, KindLabels, stamp))
	at, err = s.LastSync(ctx, KindLabels)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(at))
}

type fakeSource struct {
	mu       sync.Mutex
	calls    map[string]int
	since    map[string]time.Time
	fail     map[string]error
	block    chan struct{}
	inflight atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: map[string]int{}, since: map[string]time.Time{}, fail: map[string]error{}}
}

func (f *fakeSource) record(name string, since time.Time) error {
	f.mu.Lock()
	f.calls[name]++
	f.since[name] = since
	err := f.fail[name]
	block := f.block
	f.mu.Unlock()
	if block != nil {
		f.inflight.Add(1)
		<-block
	}
	return err
}

func (f *fakeSource) Taxonomy(_ context.Context, name string, since time.Time) (*offapi.TaxonomyDocument, error) {
	if err := f.record(name, since); err != nil {
		return nil, err
	}
	if !since.IsZero() {
		return nil, offapi.ErrNotModified
	}
	return &offapi.TaxonomyDocument{
		Name: name,
		Entries: map[string]offapi.TaxonomyNode{
			"en:a": {Name: map[string]string{"en": "A"}},
			"en:b": {Name: map[string]string{"en": "B"}},
		},
		LastModified: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeSource) InvalidBarcodes(_ context.Context, since time.Time) (*offapi.InvalidBarcodeList, error) {
	if err := f.record(string(KindInvalidBarcodes), since); err != nil {
		return nil, err
	}
	return &offapi.InvalidBarcodeList{Codes: []string{"111"}}, nil
}

func TestSyncer_SyncAndSkipUnchanged(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	src := newFakeSource()
	src.fail[string(KindBrands)] = offapi.ErrTimeout
	sy := NewSyncer(s, src, "off", 2)

	rep, err := sy.Sync(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, offapi.ErrTimeout))
	assert.Equal(t, ResultError, rep[KindBrands])
	assert.Equal(t, ResultUpdated, rep[KindLabels])
	assert.Equal(t, ResultUpdated, rep[KindInvalidBarcodes])
	assert.True(t, s.IsInvalidBarcode(ctx, "111"))
	_, lastErr := sy.LastRun()
	assert.Contains(t, lastErr, "brands")

	name, ok := s.Name(ctx, KindLabels, "en:b", "de")
	assert.True(t, ok)
	assert.Equal(t, "B", name)

	delete(src.fail, string(KindBrands))
	rep, err = sy.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultUnchanged, rep[KindLabels])
	assert.Equal(t, ResultUpdated, rep[KindBrands])
	at, lastErr := sy.LastRun()
	assert.False(t, at.IsZero())
	assert.Empty(t, lastErr)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), src.since[string(KindLabels)])
}

func TestSyncer_OnlyActiveKinds(t *testing.T) {
	s := openTest(t)
	src := newFakeSource()
	_, err := NewSyncer(s, src, "opf", 4).Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, src.calls[string(KindAllergens)])
	assert.Equal(t, 1, src.calls[string(KindCategories)])
}

func TestSyncer_ConcurrentCallersShareRun(t *testing.T) {
	s := openTest(t)
	src := newFakeSource()
	src.block = make(chan struct{})
	sy := NewSyncer(s, src, "opf", 1)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sy.Sync(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return src.inflight.Load() == 1 }, time.Second, 5*time.Millisecond)
	// let the other callers join the in-flight run
	time.Sleep(50 * time.Millisecond)
	close(src.block)
	wg.Wait()
	assert.Equal(t, 1, src.calls[string(KindCategories)])
}

func TestSyncer_RunStopsOnCancel(t *testing.T) {
	s := openTest(t)
	sy := NewSyncer(s, newFakeSource(), "off", 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sy.Run(ctx, time.Hour) }()
	sy.SetInterval(0)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
