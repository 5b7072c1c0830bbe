// Package home assembles the data of the home screen: the tagline in the
// user's language and the size of the product database.
package home

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/foodscan/internal/cache"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/offapi"
	"golang.org/x/text/language"
)

const (
	keyTaglines = "home:taglines"
	keyCount    = "home:product_count"
)

// Client is the subset of the Open Food Facts API used here.
type Client interface {
	Taglines(ctx context.Context) ([]offapi.TaglineLanguage, error)
	TotalProductCount(ctx context.Context) (int64, error)
}

type Home struct {
	Language     string          `json:"language"`
	Tagline      *offapi.TagLine `json:"tagline,omitempty"`
	ProductCount int64           `json:"product_count"`
	// Stale is set when ProductCount comes from an earlier fetch.
	Stale bool `json:"stale"`
}

type Service struct {
	client Client
	cache  cache.Cache
	ttl    time.Duration

	mu        sync.Mutex
	lastCount int64
}

func New(client Client, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewNoOp()
	}
	return &Service{client: client, cache: c, ttl: ttl}
}

// Get builds the home data for lang. Failures degrade the result instead of
// failing the call.
func (s *Service) Get(ctx context.Context, lang string) *Home {
	lang = NormalizeLanguage(lang)
	h := &Home{Language: lang}
	h.Tagline = s.tagline(ctx, lang)
	h.ProductCount, h.Stale = s.productCount(ctx)
	return h
}

func (s *Service) tagline(ctx context.Context, lang string) *offapi.TagLine {
	logger := log.WithComponentFromContext(ctx, "home")

	var all []offapi.TaglineLanguage
	if !cache.GetJSON(ctx, s.cache, keyTaglines, &all) {
		var err error
		all, err = s.client.Taglines(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("fetch taglines")
			return nil
		}
		if err := cache.SetJSON(ctx, s.cache, keyTaglines, all, s.ttl); err != nil {
			logger.Warn().Err(err).Msg("cache taglines")
		}
	}
	t, ok := PickTagline(all, lang)
	if !ok {
		return nil
	}
	return &t
}

// productCount fetches the total count. On failure the last known count is
// returned with stale set; zero when none is known.
func (s *Service) productCount(ctx context.Context) (int64, bool) {
	n, err := s.client.TotalProductCount(ctx)
	if err == nil {
		s.mu.Lock()
		s.lastCount = n
		s.mu.Unlock()
		if cerr := cache.SetJSON(ctx, s.cache, keyCount, n, 0); cerr != nil {
			logger := log.WithComponentFromContext(ctx, "home")
			logger.Warn().Err(cerr).Msg("cache product count")
		}
		return n, false
	}

	logger := log.WithComponentFromContext(ctx, "home")
	logger.Warn().Err(err).Msg("fetch product count, using last known value")
	var cached int64
	if cache.GetJSON(ctx, s.cache, keyCount, &cached) {
		return cached, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCount, true
}

// NormalizeLanguage reduces an accept-language style tag to its base
// language ("pt-BR" -> "pt"). Unparseable input yields "en".
func NormalizeLanguage(lang string) string {
	t, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil || t == language.Und {
		return "en"
	}
	base, _ := t.Base()
	return base.String()
}

// PickTagline chooses the tagline for lang. Every entry whose language
// contains lang replaces the previous pick, and an exact match ends the
// search. Without a match the last entry is used.
func PickTagline(all []offapi.TaglineLanguage, lang string) (offapi.TagLine, bool) {
	if len(all) == 0 {
		return offapi.TagLine{}, false
	}
	var (
		picked offapi.TagLine
		found  bool
	)
	for _, t := range all {
		if !strings.Contains(t.Language, lang) {
			continue
		}
		picked, found = t.TagLine, true
		if t.Language == lang {
			break
		}
	}
	if found {
		return picked, true
	}
	return all[len(all)-1].TagLine, true
}
