// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/foodscan/internal/api"
	"github.com/ManuGH/foodscan/internal/bus"
	"github.com/ManuGH/foodscan/internal/cache"
	"github.com/ManuGH/foodscan/internal/camera"
	"github.com/ManuGH/foodscan/internal/config"
	"github.com/ManuGH/foodscan/internal/health"
	"github.com/ManuGH/foodscan/internal/history"
	historykafka "github.com/ManuGH/foodscan/internal/history/kafka"
	historypg "github.com/ManuGH/foodscan/internal/history/pg"
	"github.com/ManuGH/foodscan/internal/home"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/offline"
	"github.com/ManuGH/foodscan/internal/persistence/sqlite"
	"github.com/ManuGH/foodscan/internal/scan"
	"github.com/ManuGH/foodscan/internal/scan/prefs"
	"github.com/ManuGH/foodscan/internal/search"
	"github.com/ManuGH/foodscan/internal/summary"
	"github.com/ManuGH/foodscan/internal/taxonomy"
	"github.com/ManuGH/foodscan/internal/telemetry"
	"github.com/ManuGH/foodscan/internal/workflow"
)

const (
	dbFile          = "foodscan.db"
	taxonomyDir     = "taxonomy"
	staleSyncFactor = 2
)

// Options tune Build.
type Options struct {
	// Stdin feeds the "stdin" camera source.
	Stdin io.Reader
	// Upstream overrides the Open Food Facts client options derived from the
	// configuration when non-nil.
	Upstream *offapi.Options
}

// Runtime is the wired application: every service of a scan station built
// from one configuration.
type Runtime struct {
	cfg    config.AppConfig
	logger zerolog.Logger

	DB        *sql.DB
	Bus       *bus.MemoryBus
	Client    *offapi.Client
	Cache     cache.Cache
	Taxonomy  *taxonomy.Store
	Syncer    *taxonomy.Syncer
	Offline   *offline.Store
	Prefs     *prefs.Store
	History   *history.Recorder
	Summaries *summary.Summarizer
	Model     *workflow.Model
	Session   *scan.Session
	// Camera is nil when the camera source is "none".
	Camera *camera.Adapter
	source camera.Source

	Health *health.Manager
	API    *api.Server

	telemetry *telemetry.Provider
	closers   []namedHook
	closeOnce sync.Once
	closeErr  error
}

// Build opens the stores and wires every service. On error everything opened
// so far is closed again.
func Build(ctx context.Context, cfg config.AppConfig, opts Options) (_ *Runtime, err error) {
	rt := &Runtime{cfg: cfg, logger: log.WithComponent("daemon")}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	rt.telemetry, err = telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	rt.onClose("telemetry", rt.telemetry.Shutdown)

	if err := rt.openStores(ctx); err != nil {
		return nil, err
	}

	upstream := UpstreamOptions(cfg)
	if opts.Upstream != nil {
		upstream = *opts.Upstream
	}
	rt.Client = offapi.New(upstream)

	rt.Syncer = taxonomy.NewSyncer(rt.Taxonomy, rt.Client, cfg.Flavor, cfg.Taxonomy.Concurrency)
	rt.Summaries = summary.New(rt.Taxonomy)

	rt.Model = workflow.NewModel(cfg.Scan.Session, rt.Bus)
	rt.Session = scan.New(scan.Deps{
		Model:     rt.Model,
		Bus:       rt.Bus,
		Products:  rt.Client,
		Offline:   rt.Offline,
		History:   rt.History,
		Allergens: rt.Summaries,
		Blocklist: rt.Taxonomy,
	}, sessionOptions(cfg, cfg.Camera.Beep))

	p, err := rt.Prefs.Load(ctx, prefDefaults(cfg))
	if err != nil {
		rt.logger.Warn().Err(err).Msg("scanner preferences unavailable, using defaults")
	}
	rt.Session.SetBeep(p.Beep)

	if err := rt.buildCamera(opts.Stdin); err != nil {
		return nil, err
	}
	rt.buildHealth()
	rt.buildAPI()
	return rt, nil
}

func (rt *Runtime) openStores(ctx context.Context) error {
	cfg := rt.cfg

	db, err := sqlite.Open(ctx, DatabasePath(cfg), sqlite.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	rt.DB = db
	rt.onClose("sqlite", func(context.Context) error { return db.Close() })

	rt.Bus = bus.NewMemoryBus()
	rt.onClose("bus", func(context.Context) error { return rt.Bus.Close() })

	rt.Taxonomy, err = taxonomy.Open(TaxonomyPath(cfg), cfg.Taxonomy.InMemory)
	if err != nil {
		return fmt.Errorf("open taxonomy store: %w", err)
	}
	rt.onClose("taxonomy", func(context.Context) error { return rt.Taxonomy.Close() })

	rt.Cache, err = cache.New(ctx, cache.Config{
		Backend:       cfg.Cache.Backend,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	rt.onClose("cache", func(context.Context) error { return rt.Cache.Close() })

	rt.Offline = offline.NewStore(db, rt.Bus)
	rt.Prefs = prefs.NewStore(db)

	store, err := rt.historyStore(ctx)
	if err != nil {
		return err
	}
	var sinks []history.Sink
	if k := cfg.History.Kafka; k.Enabled {
		sink, err := historykafka.Connect(historykafka.Config{Brokers: k.Brokers, Topic: k.Topic, ClientID: k.ClientID})
		if err != nil {
			return fmt.Errorf("connect history sink: %w", err)
		}
		rt.onClose("history_kafka", func(context.Context) error { return sink.Close() })
		sinks = append(sinks, sink)
	}
	rt.History = history.NewRecorder(store, cfg.History.Backend, sinks...)
	return nil
}

func (rt *Runtime) historyStore(ctx context.Context) (history.Store, error) {
	if rt.cfg.History.Backend != "postgres" {
		return history.NewSQLiteStore(rt.DB), nil
	}
	pg, err := historypg.Open(ctx, historypg.Config{URL: rt.cfg.History.PostgresDSN}, nil)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	rt.onClose("history_pg", func(context.Context) error { pg.Close(); return nil })
	return pg, nil
}

func (rt *Runtime) buildCamera(stdin io.Reader) error {
	switch rt.cfg.Camera.Source {
	case "", "none":
		rt.Session.RoutedByCamera(false)
		return nil
	case "stdin":
		if stdin == nil {
			return errors.New("camera source stdin needs an input stream")
		}
		rt.source = camera.NewLineSource(stdin, rt.cfg.Camera.Format)
	case "api":
		src := camera.NewChanSource()
		rt.source = src
		rt.Session.SetFeed(scan.FeedFunc(func(code, format string) bool {
			return src.Push(camera.Frame{Value: code, Format: format})
		}))
	default:
		return fmt.Errorf("unknown camera source %q", rt.cfg.Camera.Source)
	}
	rt.Camera = camera.NewAdapter(rt.Model, nil, rt.Session.OnBarcode)
	rt.Session.RoutedByCamera(true)
	return nil
}

func (rt *Runtime) buildHealth() {
	rt.Health = health.NewManager(rt.cfg.Version)
	rt.Health.RegisterChecker(health.NewPingChecker("database", rt.DB.PingContext, false))
	if r, ok := rt.Cache.(*cache.Redis); ok {
		rt.Health.RegisterChecker(health.NewPingChecker("cache", r.HealthCheck, true))
	}
	if rt.cfg.Taxonomy.RefreshInterval > 0 {
		rt.Health.RegisterChecker(health.NewLastRunChecker("taxonomy",
			staleSyncFactor*rt.cfg.Taxonomy.RefreshInterval, rt.Syncer.LastRun))
	}
}

func (rt *Runtime) buildAPI() {
	cfg := rt.cfg
	ttl := cfg.Cache.TTL

	deps := api.Deps{
		Scan:      rt.Session,
		Workflow:  rt.Model,
		Prefs:     rt.Prefs,
		Offline:   rt.Offline,
		History:   rt.History,
		Products:  rt.Client,
		Summaries: rt.Summaries,
		Search:    search.New(rt.Client, rt.Cache, ttl, search.WithStrictBarcodes(cfg.Scan.StrictBarcodes)),
		Home:      home.New(rt.Client, rt.Cache, ttl),
		Allergens: rt.Taxonomy,
		Taxonomy:  rt.Syncer,
		Health:    rt.Health,
		Metrics:   promhttp.Handler(),
	}
	if rt.Camera != nil {
		deps.Camera = rt.Camera
	}

	tracing := ""
	if cfg.Telemetry.Enabled {
		tracing = cfg.Log.Service
	}
	rt.API = api.New(api.Config{
		Version:        cfg.Version,
		Language:       cfg.Scan.Language,
		IngestFormat:   cfg.Camera.Format,
		HistoryLimit:   cfg.History.Limit,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
		TracingService: tracing,
		PrefDefaults:   prefDefaults(cfg),
	}, deps)
}

// Handler serves the API.
func (rt *Runtime) Handler() http.Handler { return rt.API.Handler() }

// RunScan starts the session and attaches the camera, then holds both until
// ctx is done.
func (rt *Runtime) RunScan(ctx context.Context) error {
	if err := rt.Session.Start(ctx); err != nil {
		return fmt.Errorf("start scan session: %w", err)
	}
	defer func() { _ = rt.Session.Close() }()

	if rt.Camera != nil {
		p, err := rt.Prefs.Load(ctx, prefDefaults(rt.cfg))
		if err != nil {
			rt.logger.Warn().Err(err).Msg("scanner preferences unavailable, using defaults")
		}
		if err := rt.Camera.Attach(ctx, rt.source, p.Settings()); err != nil {
			return fmt.Errorf("attach camera: %w", err)
		}
		defer rt.Camera.Detach()
		if err := rt.Camera.OnResume(ctx); err != nil {
			return fmt.Errorf("resume camera: %w", err)
		}
	} else if err := rt.Model.SetState(ctx, workflow.Detecting); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// RunTaxonomy keeps the taxonomies fresh until ctx is done.
func (rt *Runtime) RunTaxonomy(ctx context.Context) error {
	return rt.Syncer.Run(ctx, rt.cfg.Taxonomy.RefreshInterval)
}

// Workers returns the background loops the App runs next to the servers.
func (rt *Runtime) Workers() []Worker {
	return []Worker{
		{Name: "scan", Run: rt.RunScan},
		{Name: "taxonomy", Run: rt.RunTaxonomy},
	}
}

// ApplyConfig applies the hot-reloadable part of next to the running services.
func (rt *Runtime) ApplyConfig(_, next config.AppConfig, summary config.ChangeSummary) {
	if err := log.SetLevel(next.Log.Level); err != nil {
		rt.logger.Warn().Err(err).Str("level", next.Log.Level).Msg("invalid log level ignored")
	}
	rt.Session.SetOptions(sessionOptions(next, rt.Session.Options().Beep))
	rt.Syncer.SetInterval(next.Taxonomy.RefreshInterval)
	rt.API.SetRateLimit(next.Server.RateLimit)
	rt.API.SetPrefDefaults(prefDefaults(next))
	rt.API.SetLanguage(next.Scan.Language)

	rt.logger.Info().
		Str(log.FieldEvent, "config.applied").
		Strs("changed", summary.ChangedFields).
		Bool("restart_required", summary.RestartRequired).
		Msg("configuration applied to running services")
}

// RegisterShutdownHooks hands the runtime's cleanup to m, so it runs after
// the servers stopped.
func (rt *Runtime) RegisterShutdownHooks(m Manager) {
	m.RegisterShutdownHook("runtime", rt.Close)
}

// Close releases everything Build opened, in reverse order.
func (rt *Runtime) Close(ctx context.Context) error {
	rt.closeOnce.Do(func() {
		var errs []error
		for i := len(rt.closers) - 1; i >= 0; i-- {
			c := rt.closers[i]
			if err := c.hook(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			}
		}
		rt.closeErr = errors.Join(errs...)
	})
	return rt.closeErr
}

func (rt *Runtime) onClose(name string, fn ShutdownHook) {
	rt.closers = append(rt.closers, namedHook{name: name, hook: fn})
}

// DatabasePath is the SQLite database holding offline products, preferences
// and the local history.
func DatabasePath(cfg config.AppConfig) string {
	return filepath.Join(cfg.DataDir, dbFile)
}

// TaxonomyPath is the directory of the taxonomy store.
func TaxonomyPath(cfg config.AppConfig) string {
	if cfg.Taxonomy.Path != "" {
		return cfg.Taxonomy.Path
	}
	return filepath.Join(cfg.DataDir, taxonomyDir)
}

// UpstreamOptions maps the api section onto the Open Food Facts client options.
func UpstreamOptions(cfg config.AppConfig) offapi.Options {
	return offapi.Options{
		BaseURL:          cfg.API.BaseURL,
		StaticURL:        cfg.API.StaticURL,
		Timeout:          cfg.API.Timeout,
		UserAgent:        cfg.API.UserAgent,
		MaxRetries:       cfg.API.TaxonomyRetries,
		RateLimit:        rate.Limit(cfg.API.RateLimit),
		RateLimitBurst:   cfg.API.RateLimitBurst,
		SearchRateLimit:  rate.Limit(cfg.API.SearchRateLimit),
		BreakerThreshold: cfg.API.BreakerThreshold,
		BreakerReset:     cfg.API.BreakerReset,
	}
}

func sessionOptions(cfg config.AppConfig, beep bool) scan.Options {
	return scan.Options{
		HintTimeout:    cfg.Scan.HintTimeout,
		AutoResume:     cfg.Scan.AutoResume,
		StrictBarcodes: cfg.Scan.StrictBarcodes,
		Language:       cfg.Scan.Language,
		Beep:           beep,
	}
}

func prefDefaults(cfg config.AppConfig) prefs.Prefs {
	facing, err := camera.ParseFacing(cfg.Camera.Facing)
	if err != nil {
		facing = camera.FacingBack
	}
	return prefs.Prefs{
		Beep:      cfg.Camera.Beep,
		Flash:     cfg.Camera.Flash,
		AutoFocus: cfg.Camera.AutoFocus,
		Facing:    facing,
	}
}
