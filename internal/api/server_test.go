// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/camera"
	"github.com/ManuGH/foodscan/internal/health"
	"github.com/ManuGH/foodscan/internal/history"
	"github.com/ManuGH/foodscan/internal/home"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/offline"
	"github.com/ManuGH/foodscan/internal/scan"
	"github.com/ManuGH/foodscan/internal/scan/prefs"
	"github.com/ManuGH/foodscan/internal/search"
	"github.com/ManuGH/foodscan/internal/summary"
	"github.com/ManuGH/foodscan/internal/taxonomy"
	"github.com/ManuGH/foodscan/internal/validate"
	"github.com/ManuGH/foodscan/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viewTopic = "test.views"

type fakeScanner struct {
	bus *bus.MemoryBus

	mu       sync.Mutex
	ingested []string
	manual   []string
	troubles int
	resumes  int
	beep     bool
	last     string
	closed   bool
	stopped  bool
}

func (f *fakeScanner) Ingest(_ context.Context, code, format string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return scan.ErrClosed
	}
	if f.stopped {
		return scan.ErrFeedStopped
	}
	f.ingested = append(f.ingested, code+"/"+format)
	f.last = code
	return nil
}

func (f *fakeScanner) Manual(_ context.Context, code string) error {
	if err := validate.Barcode(code, true); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manual = append(f.manual, code)
	f.last = code
	return nil
}

func (f *fakeScanner) Trouble(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.troubles++
}

func (f *fakeScanner) Resume(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return nil
}

func (f *fakeScanner) Refresh(_ context.Context, code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return code != "" && code == f.last
}

func (f *fakeScanner) SetBeep(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beep = on
}

func (f *fakeScanner) Snapshot() scan.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return scan.Snapshot{Session: "test", LastBarcode: f.last}
}

func (f *fakeScanner) SubscribeViews(ctx context.Context, opts ...bus.SubscribeOption) (bus.Subscriber, error) {
	return f.bus.Subscribe(ctx, viewTopic, opts...)
}

type fakeCamera struct {
	mu       sync.Mutex
	settings camera.Settings
}

func (c *fakeCamera) ToggleCamera(context.Context) (camera.Facing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Facing = c.settings.Facing.Toggle()
	return c.settings.Facing, nil
}

func (c *fakeCamera) UpdateFlash(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Flash = on
}

func (c *fakeCamera) UpdateAutoFocus(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.AutoFocus = on
}

func (c *fakeCamera) Settings() camera.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

type memPrefs struct {
	mu    sync.Mutex
	saved *prefs.Prefs
}

func (m *memPrefs) Load(_ context.Context, defaults prefs.Prefs) (prefs.Prefs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return defaults, nil
	}
	return *m.saved, nil
}

func (m *memPrefs) Save(_ context.Context, p prefs.Prefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &p
	return nil
}

type memOffline struct {
	mu       sync.Mutex
	products map[string]offline.Product
}

func (m *memOffline) Get(_ context.Context, code string) (*offline.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[code]
	if !ok {
		return nil, offline.ErrNotFound
	}
	return &p, nil
}

func (m *memOffline) Save(_ context.Context, p offline.Product) (*offline.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	m.products[p.Barcode] = p
	return &p, nil
}

func (m *memOffline) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[code]; !ok {
		return offline.ErrNotFound
	}
	delete(m.products, code)
	return nil
}

func (m *memOffline) List(context.Context) ([]offline.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]offline.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

type memHistory struct {
	entries   []history.Entry
	lastLimit int
	cleared   bool
}

func (m *memHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	m.lastLimit = limit
	return m.entries, nil
}

func (m *memHistory) Clear(context.Context) error {
	m.cleared = true
	m.entries = nil
	return nil
}

type stubProducts map[string]*offapi.ProductState

func (s stubProducts) ProductFor(_ context.Context, code, purpose string) (*offapi.ProductState, error) {
	if purpose != offapi.PurposeSummary {
		return nil, errors.New("unexpected purpose " + purpose)
	}
	if code == "5000000000001" {
		return nil, offapi.ErrTimeout
	}
	if st, ok := s[code]; ok {
		return st, nil
	}
	return &offapi.ProductState{Code: code, Status: 0}, nil
}

type stubSummaries struct{}

func (stubSummaries) Summarize(_ context.Context, p *offapi.Product, lang string) (*summary.Summary, error) {
	return &summary.Summary{Code: p.Code, Language: lang}, nil
}

type stubSearch struct{}

func (stubSearch) Search(_ context.Context, terms string, page int) (*search.Result, error) {
	return &search.Result{State: search.StateEmpty, Query: terms, Page: page}, nil
}

type stubHome struct{}

func (stubHome) Get(_ context.Context, lang string) *home.Home {
	return &home.Home{Language: lang, ProductCount: 42}
}

type memAllergens struct {
	enabled map[string]bool
}

func (m *memAllergens) AllergenNames(_ context.Context, enabled bool, _ string) ([]taxonomy.AllergenName, error) {
	var out []taxonomy.AllergenName
	for tag, on := range m.enabled {
		if on == enabled {
			out = append(out, taxonomy.AllergenName{Tag: tag, Name: tag, Enabled: on})
		}
	}
	return out, nil
}

func (m *memAllergens) AllergensByLanguage(_ context.Context, _ string) ([]taxonomy.AllergenName, error) {
	var out []taxonomy.AllergenName
	for tag, on := range m.enabled {
		out = append(out, taxonomy.AllergenName{Tag: tag, Name: tag, Enabled: on})
	}
	return out, nil
}

func (m *memAllergens) SetAllergenEnabled(_ context.Context, tag string, enabled bool) error {
	if _, ok := m.enabled[tag]; !ok {
		return taxonomy.ErrNotFound
	}
	m.enabled[tag] = enabled
	return nil
}

type stubSyncer struct {
	rep taxonomy.Report
	err error
}

func (s stubSyncer) Sync(context.Context) (taxonomy.Report, error) { return s.rep, s.err }

type fixture struct {
	srv      *Server
	bus      *bus.MemoryBus
	scanner  *fakeScanner
	model    *workflow.Model
	camera   *fakeCamera
	prefs    *memPrefs
	offline  *memOffline
	history  *memHistory
	allergen *memAllergens
}

func newFixture(t *testing.T, mutate ...func(*Deps)) *fixture {
	t.Helper()
	b := bus.NewMemoryBus()
	t.Cleanup(func() { _ = b.Close() })

	f := &fixture{
		bus:      b,
		scanner:  &fakeScanner{bus: b},
		model:    workflow.NewModel("test", b),
		camera:   &fakeCamera{settings: camera.Settings{Facing: camera.FacingBack, AutoFocus: true}},
		prefs:    &memPrefs{},
		offline:  &memOffline{products: map[string]offline.Product{}},
		history:  &memHistory{entries: []history.Entry{{Barcode: "3017620422003", Title: "Nutella", ScanCount: 2}}},
		allergen: &memAllergens{enabled: map[string]bool{"en:milk": false, "en:gluten": true}},
	}
	deps := Deps{
		Scan:     f.scanner,
		Workflow: f.model,
		Camera:   f.camera,
		Prefs:    f.prefs,
		Offline:  f.offline,
		History:  f.history,
		Products: stubProducts{
			"3017620422003": {Code: "3017620422003", Status: 1, Product: &offapi.Product{Code: "3017620422003"}},
		},
		Summaries: stubSummaries{},
		Search:    stubSearch{},
		Home:      stubHome{},
		Allergens: f.allergen,
		Taxonomy:  stubSyncer{rep: taxonomy.Report{taxonomy.KindLabels: taxonomy.ResultUpdated}},
		Health:    health.NewManager("test"),
	}
	for _, m := range mutate {
		m(&deps)
	}
	f.srv = New(Config{
		Version:      "test",
		Language:     "en",
		IngestFormat: "ean13",
		PrefDefaults: prefs.Prefs{Beep: true, AutoFocus: true},
		Heartbeat:    time.Hour,
	}, deps)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "192.0.2.1:1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestIngest(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/scan", `{"barcode":"3017620422003"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "3017620422003", decode(t, w)["last_barcode"])
	assert.Equal(t, []string{"3017620422003/ean13"}, f.scanner.ingested)

	w = f.do(t, http.MethodPost, "/api/v1/scan", `{"barcode":"123","format":"qr"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "123/qr", f.scanner.ingested[1])

	w = f.do(t, http.MethodPost, "/api/v1/scan", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/scan", `{"barcode":"1","extra":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/scan", `{"format":"ean13"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "barcode")

	f.scanner.stopped = true
	w = f.do(t, http.MethodPost, "/api/v1/scan", `{"barcode":"123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, f.scanner.ingested, 2)

	f.scanner.closed = true
	w = f.do(t, http.MethodPost, "/api/v1/scan", `{"barcode":"123"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestManualAndRefresh(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/scan/manual", `{"barcode":"3017620422004"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_BARCODE", decode(t, w)["code"])

	w = f.do(t, http.MethodPost, "/api/v1/scan/manual", `{"barcode":"3017620422003"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/scan/refresh", `{"barcode":"123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = f.do(t, http.MethodPost, "/api/v1/scan/refresh", `{"barcode":"3017620422003"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/api/v1/scan/trouble", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/scan/resume", "").Code)
	assert.Equal(t, 1, f.scanner.troubles)
	assert.Equal(t, 1, f.scanner.resumes)
}

func TestPutState(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/api/v1/scan/state", `{"state":"detecting"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, workflow.Detecting, f.model.State())

	w = f.do(t, http.MethodPut, "/api/v1/scan/state", `{"state":"flying"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, workflow.Detecting, f.model.State())
}

func TestCameraSettings(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/camera/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["beep"])
	assert.Equal(t, "back", body["facing"])

	w = f.do(t, http.MethodPut, "/api/v1/camera/settings", `{"flash":true,"beep":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, f.prefs.saved)
	assert.True(t, f.prefs.saved.Flash)
	assert.True(t, f.prefs.saved.AutoFocus)
	assert.False(t, f.prefs.saved.Beep)
	assert.True(t, f.camera.Settings().Flash)
	assert.False(t, f.scanner.beep)

	w = f.do(t, http.MethodPost, "/api/v1/camera/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "front", decode(t, w)["facing"])
	assert.Equal(t, camera.FacingFront, f.prefs.saved.Facing)
}

func TestCameraToggleWithoutCamera(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Camera = nil })
	w := f.do(t, http.MethodPost, "/api/v1/camera/toggle", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", decode(t, w)["code"])
}

func TestOfflineProducts(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/offline/3017620422003", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/v1/offline/abc", "").Code)

	w := f.do(t, http.MethodPut, "/api/v1/offline/3017620422003", `{"barcode":"123","name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/offline/3017620422003", `{"name":"Hazelnut spread","quantity":"400 g"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "3017620422003", decode(t, w)["barcode"])

	w = f.do(t, http.MethodGet, "/api/v1/offline/3017620422003", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hazelnut spread", decode(t, w)["name"])

	w = f.do(t, http.MethodGet, "/api/v1/offline", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/offline/3017620422003", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/v1/offline/3017620422003", "").Code)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultHistoryLimit, f.history.lastLimit)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	f.do(t, http.MethodGet, "/api/v1/history?limit=5", "")
	assert.Equal(t, 5, f.history.lastLimit)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/history?limit=0", "").Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/history", "").Code)
	assert.True(t, f.history.cleared)
}

func TestProductSummary(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/3017620422003/summary", nil)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "fr", decode(t, w)["language"])

	w = f.do(t, http.MethodGet, "/api/v1/products/3017620422003/summary?lang=de", "")
	assert.Equal(t, "de", decode(t, w)["language"])

	w = f.do(t, http.MethodGet, "/api/v1/products/40000000/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/products/5000000000001/summary", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", decode(t, w)["code"])
}

func TestSearchAndHome(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/search", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/search?q=tea&page=x", "").Code)

	w := f.do(t, http.MethodGet, "/api/v1/search?q=tea&page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "empty", body["state"])
	assert.Equal(t, float64(2), body["page"])

	w = f.do(t, http.MethodGet, "/api/v1/home?lang=it", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "it", decode(t, w)["language"])
}

func TestAllergens(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/allergens?enabled=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["allergens"].([]any)
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/allergens?enabled=maybe", "").Code)

	w = f.do(t, http.MethodPut, "/api/v1/allergens/en:milk", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, f.allergen.enabled["en:milk"])

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/v1/allergens/en:celery", `{"enabled":true}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPut, "/api/v1/allergens/en:milk", `{}`).Code)
}

func TestTaxonomySync(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/taxonomies/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"labels": "updated"}, decode(t, w)["report"])

	f = newFixture(t, func(d *Deps) {
		d.Taxonomy = stubSyncer{
			rep: taxonomy.Report{taxonomy.KindLabels: taxonomy.ResultError},
			err: errors.New("labels: upstream"),
		}
	})
	w = f.do(t, http.MethodPost, "/api/v1/taxonomies/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "labels: upstream", decode(t, w)["error"])

	f = newFixture(t, func(d *Deps) { d.Taxonomy = stubSyncer{err: offapi.ErrUpstreamUnavailable} })
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/api/v1/taxonomies/sync", "").Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t)
	f.srv.SetRateLimit(2)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/scan/state", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/scan/state", "").Code)
	w := f.do(t, http.MethodGet, "/api/v1/scan/state", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// health checks are not limited
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", "").Code)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/scan/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		var name string
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				events <- name + " " + strings.TrimPrefix(line, "data: ")
			}
		}
	}()

	next := func() string {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream ended")
			return ev
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	assert.True(t, strings.HasPrefix(next(), eventSnapshot+" "))

	// both subscriptions are registered once the snapshot went out
	require.NoError(t, f.bus.Publish(ctx, viewTopic, scan.View{Kind: scan.ViewLoading, Barcode: "123"}))
	ev := next()
	assert.True(t, strings.HasPrefix(ev, eventView+" "), ev)
	assert.Contains(t, ev, `"kind":"loading"`)

	require.NoError(t, f.model.SetState(ctx, workflow.Detecting))
	ev = next()
	assert.True(t, strings.HasPrefix(ev, eventState+" "), ev)
	assert.Contains(t, ev, `"to":"detecting"`)
}
