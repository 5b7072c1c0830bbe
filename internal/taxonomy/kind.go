// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package taxonomy keeps a local copy of the Open Food Facts taxonomies and
// answers name lookups against it.
package taxonomy

import (
	"fmt"
	"slices"
)

// Kind names a taxonomy. The value is the remote file name.
type Kind string

const (
	KindCategories         Kind = "categories"
	KindLabels             Kind = "labels"
	KindAdditives          Kind = "additives"
	KindCountries          Kind = "countries"
	KindAllergens          Kind = "allergens"
	KindAnalysisTags       Kind = "ingredients_analysis"
	KindAnalysisTagConfigs Kind = "ingredients_analysis_config"
	KindStates             Kind = "states"
	KindStores             Kind = "stores"
	KindBrands             Kind = "brands"
	KindInvalidBarcodes    Kind = "invalid_barcodes"
)

// DefaultLanguage is the fallback for name lookups.
const DefaultLanguage = "en"

var allFlavors = []string{"off", "obf", "opff", "opf"}

// activation lists the flavors each kind is downloaded for.
var activation = map[Kind][]string{
	KindCategories:         allFlavors,
	KindLabels:             allFlavors,
	KindAdditives:          {"off", "obf", "opff"},
	KindCountries:          allFlavors,
	KindAllergens:          {"off", "opff"},
	KindAnalysisTags:       {"off", "obf"},
	KindAnalysisTagConfigs: {"off", "obf"},
	KindStates:             allFlavors,
	KindStores:             allFlavors,
	KindBrands:             {"off"},
	KindInvalidBarcodes:    allFlavors,
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindCategories, KindLabels, KindAdditives, KindCountries, KindAllergens,
		KindAnalysisTags, KindAnalysisTagConfigs, KindStates, KindStores,
		KindBrands, KindInvalidBarcodes,
	}
}

// ActiveFor reports whether the kind is used by flavor.
func (k Kind) ActiveFor(flavor string) bool {
	return slices.Contains(activation[k], flavor)
}

// ActiveKinds returns the kinds to synchronise for flavor.
func ActiveKinds(flavor string) []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if k.ActiveFor(flavor) {
			out = append(out, k)
		}
	}
	return out
}

// ParseKind accepts a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := activation[k]; !ok {
		return "", fmt.Errorf("unknown taxonomy %q", s)
	}
	return k, nil
}
