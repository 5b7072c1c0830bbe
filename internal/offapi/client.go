// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package offapi is a read-only client for the Open Food Facts API and its
// static data files.
package offapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/foodscan/internal/metrics"
	"github.com/ManuGH/foodscan/internal/platform/httpx"
	"github.com/ManuGH/foodscan/internal/resilience"
	"github.com/ManuGH/foodscan/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://world.openfoodfacts.org"
	DefaultStaticURL = "https://static.openfoodfacts.org"

	// PurposeScan is appended to the user agent on lookups triggered by a scan.
	PurposeScan    = "scan"
	PurposeSearch  = "search"
	PurposeSummary = "summary"
)

// DefaultFields is the projection requested from the product endpoint.
var DefaultFields = []string{
	"code", "product_name", "generic_name", "brands", "quantity", "lang",
	"image_front_url", "nutriscore_grade", "nova_group", "ecoscore_grade",
	"ingredients_text", "additives_tags", "allergens_tags", "allergens_hierarchy",
	"traces_tags", "states_tags", "categories_tags", "labels_tags",
	"ingredients_analysis_tags", "last_modified_t",
}

// Options configures the client. Zero values select the defaults.
type Options struct {
	BaseURL               string
	StaticURL             string
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	UserAgent             string
	// MaxRetries applies to static data downloads only. Product lookups and
	// searches are never retried. Zero disables retries, negative selects the default.
	MaxRetries           int
	Backoff              time.Duration
	MaxBackoff           time.Duration
	RateLimit            rate.Limit
	RateLimitBurst       int
	SearchRateLimit      rate.Limit
	SearchRateLimitBurst int
	BreakerThreshold     int
	BreakerReset         time.Duration
	Fields               []string
	HTTPClient           *http.Client
}

const (
	defaultTimeout              = 10 * time.Second
	defaultRetries              = 2
	defaultBackoff              = 250 * time.Millisecond
	defaultMaxBackoff           = 4 * time.Second
	defaultRateLimit            = 100.0 / 60.0 // product reads: 100 req/min
	defaultRateLimitBurst       = 10
	defaultSearchRateLimit      = 10.0 / 60.0 // search: 10 req/min
	defaultSearchRateLimitBurst = 3
	defaultBreakerThreshold     = 5
	defaultBreakerReset         = 30 * time.Second
	maxErrorBodyRead            = 4 << 10
	maxBodyRead                 = 64 << 20
)

// Client talks to Open Food Facts.
type Client struct {
	baseURL       string
	staticURL     string
	httpClient    *http.Client
	limiter       *rate.Limiter
	searchLimiter *rate.Limiter
	breaker       *resilience.CircuitBreaker
	maxRetries    int
	backoff       time.Duration
	maxBackoff    time.Duration
	userAgent     string
	fields        string
	rnd           *rand.Rand
	mu            sync.Mutex
}

// request describes one logical GET.
type request struct {
	op       string
	endpoint string
	url      string
	retries  int
	limiter  *rate.Limiter
	purpose  string
	since    time.Time
}

// New creates a client.
func New(opts Options) *Client {
	nopts := normalizeOptions(opts)

	hc := nopts.HTTPClient
	if hc == nil {
		hc = httpx.New(httpx.Options{
			Timeout:               nopts.Timeout,
			ResponseHeaderTimeout: nopts.ResponseHeaderTimeout,
		})
	}

	return &Client{
		baseURL:       nopts.BaseURL,
		staticURL:     nopts.StaticURL,
		httpClient:    hc,
		limiter:       rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
		searchLimiter: rate.NewLimiter(nopts.SearchRateLimit, nopts.SearchRateLimitBurst),
		breaker: resilience.NewCircuitBreaker("offapi", nopts.BreakerThreshold, nopts.BreakerReset,
			resilience.WithFailurePredicate(countsAsFailure)),
		maxRetries: nopts.MaxRetries,
		backoff:    nopts.Backoff,
		maxBackoff: nopts.MaxBackoff,
		userAgent:  nopts.UserAgent,
		fields:     strings.Join(nopts.Fields, ","),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter only
	}
}

func normalizeOptions(opts Options) Options {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if strings.TrimSpace(opts.StaticURL) == "" {
		opts.StaticURL = DefaultStaticURL
	}
	opts.StaticURL = strings.TrimRight(strings.TrimSpace(opts.StaticURL), "/")
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = opts.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if opts.SearchRateLimit <= 0 {
		opts.SearchRateLimit = rate.Limit(defaultSearchRateLimit)
	}
	if opts.SearchRateLimitBurst <= 0 {
		opts.SearchRateLimitBurst = defaultSearchRateLimitBurst
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = defaultBreakerThreshold
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = defaultBreakerReset
	}
	if len(opts.Fields) == 0 {
		opts.Fields = DefaultFields
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "foodscan"
	}
	return opts
}

// countsAsFailure decides which errors trip the breaker: only the remote being
// unreachable or broken, never a missing product or a caller cancellation.
func countsAsFailure(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUpstreamError)
}

// Product fetches one product. An unknown barcode is not an error: the
// returned state has Status 0.
func (c *Client) Product(ctx context.Context, code string) (*ProductState, error) {
	return c.ProductFor(ctx, code, "")
}

// ProductFor is Product with a purpose suffix on the user agent.
func (c *Client) ProductFor(ctx context.Context, code, purpose string) (*ProductState, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, wrapError("product", errors.New("empty barcode"), 0, nil)
	}
	params := url.Values{}
	params.Set("fields", c.fields)

	var state ProductState
	_, err := c.fetch(ctx, request{
		op:       "product",
		endpoint: "product",
		url:      c.baseURL + "/api/v2/product/" + url.PathEscape(code) + ".json?" + params.Encode(),
		limiter:  c.limiter,
		purpose:  purpose,
	}, &state)
	if errors.Is(err, ErrNotFound) {
		return &ProductState{Code: code, Status: 0, StatusVerbose: "product not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	if state.Code == "" {
		state.Code = code
	}
	if state.Status == 0 {
		state.Product = nil
	}
	return &state, nil
}

// Search runs a full-text search. page starts at 1.
func (c *Client) Search(ctx context.Context, terms string, page, pageSize int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 24
	}
	params := url.Values{}
	params.Set("search_terms", terms)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("json", "1")
	params.Set("fields", c.fields)

	var res SearchResult
	if _, err := c.fetch(ctx, request{
		op:       "search",
		endpoint: "search",
		url:      c.baseURL + "/cgi/search.pl?" + params.Encode(),
		limiter:  c.searchLimiter,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// TotalProductCount returns the number of products in the database.
func (c *Client) TotalProductCount(ctx context.Context) (int64, error) {
	params := url.Values{}
	params.Set("json", "1")
	params.Set("page_size", "1")
	params.Set("fields", "code")

	var res SearchResult
	if _, err := c.fetch(ctx, request{
		op:       "product_count",
		endpoint: "search",
		url:      c.baseURL + "/cgi/search.pl?" + params.Encode(),
		limiter:  c.searchLimiter,
	}, &res); err != nil {
		return 0, err
	}
	return int64(res.Count), nil
}

// Taglines downloads the home screen taglines for all languages.
func (c *Client) Taglines(ctx context.Context) ([]TaglineLanguage, error) {
	var out []TaglineLanguage
	if _, err := c.fetch(ctx, request{
		op:       "taglines",
		endpoint: "static",
		url:      c.staticURL + "/files/tagline-off-android-v2.json",
		retries:  c.maxRetries,
	}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Taxonomy downloads the named taxonomy. When since is set and the file did
// not change, ErrNotModified is returned.
func (c *Client) Taxonomy(ctx context.Context, name string, since time.Time) (*TaxonomyDocument, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, wrapError("taxonomy", errors.New("empty taxonomy name"), 0, nil)
	}
	entries := map[string]TaxonomyNode{}
	hdr, err := c.fetch(ctx, request{
		op:       "taxonomy",
		endpoint: "taxonomy",
		url:      c.staticURL + "/data/taxonomies/" + url.PathEscape(name) + ".json",
		retries:  c.maxRetries,
		since:    since,
	}, &entries)
	if err != nil {
		return nil, err
	}
	return &TaxonomyDocument{Name: name, Entries: entries, LastModified: lastModified(hdr)}, nil
}

// InvalidBarcodes downloads the list of barcodes known to be invalid.
func (c *Client) InvalidBarcodes(ctx context.Context, since time.Time) (*InvalidBarcodeList, error) {
	var codes []string
	hdr, err := c.fetch(ctx, request{
		op:       "invalid_barcodes",
		endpoint: "taxonomy",
		url:      c.staticURL + "/data/invalid-barcodes.json",
		retries:  c.maxRetries,
		since:    since,
	}, &codes)
	if err != nil {
		return nil, err
	}
	return &InvalidBarcodeList{Codes: codes, LastModified: lastModified(hdr)}, nil
}

func lastModified(h http.Header) time.Time {
	if h == nil {
		return time.Time{}
	}
	t, err := http.ParseTime(h.Get("Last-Modified"))
	if err != nil {
		return time.Time{}
	}
	return t
}

// fetch runs req through the breaker and decodes a 200 body into v.
func (c *Client) fetch(ctx context.Context, req request, v any) (http.Header, error) {
	var hdr http.Header
	err := c.breaker.Execute(func() error {
		resp, err := c.doGet(ctx, req)
		if err != nil {
			return wrapError(req.op, err, 0, nil)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyRead))
			return wrapError(req.op, nil, resp.StatusCode, body)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
		if err != nil {
			return wrapError(req.op, &bodyReadError{err: err}, resp.StatusCode, nil)
		}
		if err := json.Unmarshal(body, v); err != nil {
			return wrapError(req.op, fmt.Errorf("decode: %w", err), resp.StatusCode, nil)
		}
		hdr = resp.Header
		return nil
	})
	if err == resilience.ErrCircuitOpen {
		return nil, wrapError(req.op, err, 0, nil)
	}
	return hdr, err
}

func (c *Client) doGet(ctx context.Context, req request) (*http.Response, error) {
	tracer := telemetry.Tracer("foodscan.offapi")
	route, urlLabel := traceLabels(req.url)
	ctx, span := tracer.Start(ctx, "foodscan.offapi.request", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", http.MethodGet),
		attribute.String("http.route", route),
		attribute.String("http.url", urlLabel),
		attribute.String("offapi.operation", req.op),
	)
	defer span.End()

	maxAttempts := req.retries + 1
	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, attemptSpan := tracer.Start(ctx, "foodscan.offapi.request.attempt", trace.WithSpanKind(trace.SpanKindClient))
		attemptSpan.SetAttributes(
			attribute.Int("attempt", attempt),
			attribute.Bool("retry", attempt > 1),
		)

		if req.limiter != nil {
			if err := req.limiter.Wait(attemptCtx); err != nil {
				attemptSpan.RecordError(err)
				attemptSpan.SetStatus(codes.Error, err.Error())
				attemptSpan.End()
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, limiterError(ctx, err)
			}
		}

		httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, req.url, nil)
		if err != nil {
			attemptSpan.RecordError(err)
			attemptSpan.SetStatus(codes.Error, err.Error())
			attemptSpan.End()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		c.applyHeaders(httpReq, req)
		otel.GetTextMapPropagator().Inject(attemptCtx, propagation.HeaderCarrier(httpReq.Header))

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(start)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}

		retry := attempt < maxAttempts && shouldRetry(resp, err) && ctx.Err() == nil
		metrics.RecordUpstreamAttempt(req.endpoint, status, duration, err)
		if retry {
			metrics.IncUpstreamRetry(req.endpoint)
		}

		attemptSpan.SetAttributes(telemetry.HTTPAttributes(http.MethodGet, route, urlLabel, status)...)
		if err != nil {
			attemptSpan.RecordError(err)
		}
		if err != nil || status >= http.StatusBadRequest {
			statusText := http.StatusText(status)
			if statusText == "" {
				statusText = "request failed"
			}
			attemptSpan.SetStatus(codes.Error, statusText)
		} else {
			attemptSpan.SetStatus(codes.Ok, "")
		}
		attemptSpan.End()

		if err == nil && (status < http.StatusInternalServerError || !retry) {
			span.SetAttributes(telemetry.HTTPAttributes(http.MethodGet, route, urlLabel, status)...)
			if status >= http.StatusBadRequest {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return resp, nil
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		lastErr = err
		lastStatus = status

		if !retry {
			break
		}

		wait := c.backoffFor(attempt - 1)
		if err := sleepWithContext(ctx, wait); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	if lastStatus > 0 {
		span.SetAttributes(telemetry.HTTPAttributes(http.MethodGet, route, urlLabel, lastStatus)...)
	}
	if lastErr != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed")
}

// limiterError maps a limiter wait failure. Wait fails early when the
// deadline cannot accommodate the reservation, which is a timeout for callers.
func limiterError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func (c *Client) applyHeaders(httpReq *http.Request, req request) {
	ua := c.userAgent
	if req.purpose != "" {
		ua += " - " + req.purpose
	}
	httpReq.Header.Set("User-Agent", ua)
	httpReq.Header.Set("Accept", "application/json")
	if !req.since.IsZero() {
		httpReq.Header.Set("If-Modified-Since", req.since.UTC().Format(http.TimeFormat))
	}
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

func (c *Client) backoffFor(attempt int) time.Duration {
	wait := c.backoff * time.Duration(1<<attempt)
	if wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	jitter := time.Duration(c.randInt63n(int64(wait/5 + 1)))
	return wait + jitter
}

func (c *Client) randInt63n(n int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Int63n(n)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func traceLabels(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, rawURL
	}
	route := u.Path
	if route == "" {
		route = "/"
	}
	urlLabel := u.Host + route
	if u.RawQuery != "" {
		urlLabel += "?"
	}
	return route, urlLabel
}
