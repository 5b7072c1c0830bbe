// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
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
	"github.com/ManuGH/foodscan/internal/workflow"
)

// Scanner is the scan session. *scan.Session implements it.
type Scanner interface {
	Ingest(ctx context.Context, code, format string) error
	Manual(ctx context.Context, code string) error
	Trouble(ctx context.Context)
	Resume(ctx context.Context) error
	Refresh(ctx context.Context, code string) bool
	SetBeep(on bool)
	Snapshot() scan.Snapshot
	SubscribeViews(ctx context.Context, opts ...bus.SubscribeOption) (bus.Subscriber, error)
}

// Workflow drives and observes the workflow state. *workflow.Model implements it.
type Workflow interface {
	SetState(ctx context.Context, state workflow.State) error
	SubscribeStates(ctx context.Context) (bus.Subscriber, error)
}

// Camera is the camera view adapter. *camera.Adapter implements it.
type Camera interface {
	ToggleCamera(ctx context.Context) (camera.Facing, error)
	UpdateFlash(on bool)
	UpdateAutoFocus(on bool)
	Settings() camera.Settings
}

type PrefsStore interface {
	Load(ctx context.Context, defaults prefs.Prefs) (prefs.Prefs, error)
	Save(ctx context.Context, p prefs.Prefs) error
}

type OfflineStore interface {
	Get(ctx context.Context, barcode string) (*offline.Product, error)
	Save(ctx context.Context, p offline.Product) (*offline.Product, error)
	Delete(ctx context.Context, barcode string) error
	List(ctx context.Context) ([]offline.Product, error)
}

type HistoryStore interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Clear(ctx context.Context) error
}

type ProductSource interface {
	ProductFor(ctx context.Context, code, purpose string) (*offapi.ProductState, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, p *offapi.Product, lang string) (*summary.Summary, error)
}

type Searcher interface {
	Search(ctx context.Context, terms string, page int) (*search.Result, error)
}

type HomeProvider interface {
	Get(ctx context.Context, lang string) *home.Home
}

// Allergens is the user's allergen watch list. *taxonomy.Store implements it.
type Allergens interface {
	AllergenNames(ctx context.Context, enabled bool, lang string) ([]taxonomy.AllergenName, error)
	AllergensByLanguage(ctx context.Context, lang string) ([]taxonomy.AllergenName, error)
	SetAllergenEnabled(ctx context.Context, tag string, enabled bool) error
}

type TaxonomySyncer interface {
	Sync(ctx context.Context) (taxonomy.Report, error)
}

// Deps are the services behind the routes. Nil optional services answer
// 503 on their routes; Scan and Workflow are required.
type Deps struct {
	Scan      Scanner
	Workflow  Workflow
	Camera    Camera
	Prefs     PrefsStore
	Offline   OfflineStore
	History   HistoryStore
	Products  ProductSource
	Summaries Summarizer
	Search    Searcher
	Home      HomeProvider
	Allergens Allergens
	Taxonomy  TaxonomySyncer
	Health    *health.Manager
	// Metrics serves /metrics; nil uses the default Prometheus registry.
	Metrics http.Handler
}

// Config is the HTTP-facing part of the application configuration.
type Config struct {
	Version        string
	Language       string
	IngestFormat   string
	HistoryLimit   int
	CORSOrigins    []string
	RateLimit      int
	TracingService string
	PrefDefaults   prefs.Prefs
	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration
}
