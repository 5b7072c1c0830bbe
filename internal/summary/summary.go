// Package summary derives the user-facing summary of a product: allergen
// warnings and taxonomy tags resolved to names.
package summary

import (
	"context"
	"slices"

	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/taxonomy"
	"golang.org/x/text/language"
)

// Names resolves taxonomy tags. *taxonomy.Store implements it.
type Names interface {
	Name(ctx context.Context, kind taxonomy.Kind, tag, lang string) (string, bool)
	EnabledAllergens(ctx context.Context) ([]string, error)
}

// Tag is a taxonomy tag with its display name. Unknown tags keep the raw tag
// as name.
type Tag struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// AllergenMatch lists the watched allergens a product contains. Incomplete is
// set when the product's ingredients are not complete enough to tell.
type AllergenMatch struct {
	Incomplete bool  `json:"incomplete"`
	Allergens  []Tag `json:"allergens"`
}

// Warn reports whether the match should be shown to the user.
func (m AllergenMatch) Warn() bool {
	return m.Incomplete || len(m.Allergens) > 0
}

type Summary struct {
	Code       string        `json:"code"`
	Language   string        `json:"language"`
	Allergens  AllergenMatch `json:"allergens"`
	Categories []Tag         `json:"categories"`
	Labels     []Tag         `json:"labels"`
	Additives  []Tag         `json:"additives"`
}

type Summarizer struct {
	names Names
}

func New(names Names) *Summarizer {
	return &Summarizer{names: names}
}

// Language reduces a language tag to the base language used by the
// taxonomies ("fr-CA" -> "fr"). Unparseable input yields the default.
func Language(tag string) string {
	if tag == "" {
		return taxonomy.DefaultLanguage
	}
	t, err := language.Parse(tag)
	if err != nil {
		return taxonomy.DefaultLanguage
	}
	base, conf := t.Base()
	if conf == language.No {
		return taxonomy.DefaultLanguage
	}
	return base.String()
}

// MatchingAllergens returns the user allergens found in the product's
// allergen hierarchy or traces. With no user allergens the result is empty;
// when ingredients are not completed the product is flagged incomplete.
func MatchingAllergens(userAllergens []string, p *offapi.Product) (matched []string, incomplete bool) {
	if len(userAllergens) == 0 || p == nil {
		return nil, false
	}
	if !p.IngredientsCompleted() {
		return nil, true
	}
	for _, tag := range userAllergens {
		if slices.Contains(p.AllergensHierarchy, tag) || slices.Contains(p.TracesTags, tag) {
			matched = append(matched, tag)
		}
	}
	return matched, false
}

// Allergens matches the enabled allergens against p and names them in lang.
func (s *Summarizer) Allergens(ctx context.Context, p *offapi.Product, lang string) (AllergenMatch, error) {
	enabled, err := s.names.EnabledAllergens(ctx)
	if err != nil {
		return AllergenMatch{}, err
	}
	matched, incomplete := MatchingAllergens(enabled, p)
	return AllergenMatch{
		Incomplete: incomplete,
		Allergens:  s.resolve(ctx, taxonomy.KindAllergens, matched, Language(lang)),
	}, nil
}

// Summarize builds the full summary of p in lang.
func (s *Summarizer) Summarize(ctx context.Context, p *offapi.Product, lang string) (*Summary, error) {
	lang = Language(lang)
	allergens, err := s.Allergens(ctx, p, lang)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Code:       p.Code,
		Language:   lang,
		Allergens:  allergens,
		Categories: s.resolve(ctx, taxonomy.KindCategories, p.CategoriesTags, lang),
		Labels:     s.resolve(ctx, taxonomy.KindLabels, p.LabelsTags, lang),
		Additives:  s.resolve(ctx, taxonomy.KindAdditives, p.AdditivesTags, lang),
	}, nil
}

func (s *Summarizer) resolve(ctx context.Context, kind taxonomy.Kind, tags []string, lang string) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		name, ok := s.names.Name(ctx, kind, tag, lang)
		if !ok {
			name = tag
		}
		out = append(out, Tag{Tag: tag, Name: name})
	}
	return out
}
