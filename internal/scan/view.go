// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scan

import (
	"time"

	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/offline"
	"github.com/ManuGH/foodscan/internal/summary"
)

// ViewKind names what the scan screen shows.
type ViewKind string

const (
	ViewLoading           ViewKind = "loading"
	ViewOfflineProduct    ViewKind = "offline_product"
	ViewProduct           ViewKind = "product"
	ViewAddProductOffline ViewKind = "add_product_offline"
	ViewNotFound          ViewKind = "not_found"
	ViewConnectionError   ViewKind = "connection_error"
	ViewHint              ViewKind = "hint_search_by_barcode"
	ViewManualEntry       ViewKind = "manual_entry"
	ViewBeep              ViewKind = "beep"
	ViewAllergenWarning   ViewKind = "allergen_warning"
)

// Transient kinds do not replace what the screen shows.
func (k ViewKind) transient() bool {
	return k == ViewBeep || k == ViewAllergenWarning
}

// showsProduct reports whether the product card is on screen, loading included.
func (k ViewKind) showsProduct() bool {
	switch k {
	case ViewLoading, ViewProduct, ViewOfflineProduct, ViewNotFound, ViewAddProductOffline:
		return true
	}
	return false
}

// View is one update of the scan screen, published to the session's view topic.
type View struct {
	Kind       ViewKind               `json:"kind"`
	Session    string                 `json:"session"`
	Barcode    string                 `json:"barcode,omitempty"`
	Generation uint64                 `json:"generation,omitempty"`
	Product    *offapi.Product        `json:"product,omitempty"`
	Offline    *offline.Product       `json:"offline,omitempty"`
	Quick      *QuickView             `json:"quick_view,omitempty"`
	Allergens  *summary.AllergenMatch `json:"allergens,omitempty"`
	At         time.Time              `json:"at"`
}

// Additive summary states.
const (
	AdditivesCount   = "count"
	AdditivesNone    = "none"
	AdditivesUnknown = "unknown"
)

type Additives struct {
	Status string `json:"status"`
	Count  int    `json:"count,omitempty"`
}

// QuickView is the condensed product card.
type QuickView struct {
	Name       string    `json:"name"`
	Brands     string    `json:"brands,omitempty"`
	Quantity   string    `json:"quantity,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Additives  Additives `json:"additives"`
	NutriScore string    `json:"nutriscore,omitempty"`
	NovaGroup  int       `json:"nova_group,omitempty"`
	EcoScore   string    `json:"ecoscore,omitempty"`
	Incomplete bool      `json:"incomplete"`
}

// NewQuickView condenses p. A non-empty offline name wins over the remote one.
func NewQuickView(p *offapi.Product, saved *offline.Product) QuickView {
	q := QuickView{
		Name:       p.ProductName,
		Brands:     p.Brands,
		Quantity:   p.Quantity,
		ImageURL:   p.ImageFrontURL,
		NutriScore: p.NutriscoreGrade,
		NovaGroup:  int(p.NovaGroup),
		EcoScore:   p.EcoscoreGrade,
		Incomplete: p.Incomplete(),
	}
	if saved != nil && saved.DisplayName() != "" {
		q.Name = saved.DisplayName()
	}
	switch {
	case len(p.AdditivesTags) > 0:
		q.Additives = Additives{Status: AdditivesCount, Count: len(p.AdditivesTags)}
	case p.IngredientsCompleted():
		q.Additives = Additives{Status: AdditivesNone}
	default:
		q.Additives = Additives{Status: AdditivesUnknown}
	}
	return q
}

// offlineQuickView is the card of a product only known locally.
func offlineQuickView(saved *offline.Product) QuickView {
	return QuickView{
		Name:       saved.DisplayName(),
		Brands:     saved.Brands,
		Quantity:   saved.Quantity,
		Additives:  Additives{Status: AdditivesUnknown},
		Incomplete: true,
	}
}
