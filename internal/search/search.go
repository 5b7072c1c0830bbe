// Package search runs product searches with a cached, tri-state result.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/foodscan/internal/cache"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/validate"
)

// State is the outcome of a search.
type State string

const (
	// StateOffline means the remote database could not be reached.
	StateOffline State = "offline"
	StateEmpty   State = "empty"
	StateSuccess State = "success"
)

const DefaultPageSize = 24

// Client is the subset of the Open Food Facts API used here.
type Client interface {
	Search(ctx context.Context, terms string, page, pageSize int) (*offapi.SearchResult, error)
	ProductFor(ctx context.Context, code, purpose string) (*offapi.ProductState, error)
}

// Result is one page of search results.
type Result struct {
	State    State            `json:"state"`
	Query    string           `json:"query"`
	Count    int64            `json:"count"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Products []offapi.Product `json:"products"`
	// Barcode is set when the query was served as a barcode lookup.
	Barcode bool `json:"barcode,omitempty"`
}

type Service struct {
	client   Client
	cache    cache.Cache
	ttl      time.Duration
	pageSize int
	strict   bool
}

type Option func(*Service)

func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithStrictBarcodes only treats queries with a valid check digit as barcodes.
func WithStrictBarcodes(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

func New(client Client, c cache.Cache, ttl time.Duration, opts ...Option) *Service {
	if c == nil {
		c = cache.NewNoOp()
	}
	s := &Service{client: client, cache: c, ttl: ttl, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns page (1-based) of the results for terms. Network failures
// yield StateOffline rather than an error; other upstream failures are returned.
func (s *Service) Search(ctx context.Context, terms string, page int) (*Result, error) {
	terms = strings.TrimSpace(terms)
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("search:%d:%d:%s", page, s.pageSize, strings.ToLower(terms))

	var cached Result
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	var (
		res *Result
		err error
	)
	if validate.ValidBarcode(terms, s.strict) {
		res, err = s.lookup(ctx, terms)
	} else {
		res, err = s.search(ctx, terms, page)
	}
	if err != nil {
		if offapi.IsNetwork(err) {
			return &Result{State: StateOffline, Query: terms, Page: page, PageSize: s.pageSize}, nil
		}
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, res, s.ttl); err != nil {
		logger := log.WithComponentFromContext(ctx, "search")
		logger.Warn().Err(err).Msg("cache search result")
	}
	return res, nil
}

func (s *Service) search(ctx context.Context, terms string, page int) (*Result, error) {
	sr, err := s.client.Search(ctx, terms, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Query:    terms,
		Count:    int64(sr.Count),
		Page:     page,
		PageSize: s.pageSize,
		Products: sr.Products,
		State:    StateSuccess,
	}
	if res.Count == 0 || len(res.Products) == 0 {
		res.State = StateEmpty
		res.Products = nil
	}
	return res, nil
}

func (s *Service) lookup(ctx context.Context, code string) (*Result, error) {
	ps, err := s.client.ProductFor(ctx, code, offapi.PurposeSearch)
	if err != nil {
		return nil, err
	}
	res := &Result{Query: code, Page: 1, PageSize: s.pageSize, Barcode: true, State: StateEmpty}
	if ps.Found() {
		res.State = StateSuccess
		res.Count = 1
		res.Products = []offapi.Product{*ps.Product}
	}
	return res, nil
}
