// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package offapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// State tags used by Open Food Facts to track product completeness.
const (
	StateIngredientsCompleted = "en:ingredients-completed"
	StateToBeCompleted        = "en:to-be-completed"
)

// Product is the subset of a product record foodscan works with.
type Product struct {
	Code                    string   `json:"code"`
	ProductName             string   `json:"product_name,omitempty"`
	GenericName             string   `json:"generic_name,omitempty"`
	Brands                  string   `json:"brands,omitempty"`
	Quantity                string   `json:"quantity,omitempty"`
	Lang                    string   `json:"lang,omitempty"`
	ImageFrontURL           string   `json:"image_front_url,omitempty"`
	NutriscoreGrade         string   `json:"nutriscore_grade,omitempty"`
	NovaGroup               FlexInt  `json:"nova_group,omitempty"`
	EcoscoreGrade           string   `json:"ecoscore_grade,omitempty"`
	IngredientsText         string   `json:"ingredients_text,omitempty"`
	AdditivesTags           []string `json:"additives_tags,omitempty"`
	AllergensTags           []string `json:"allergens_tags,omitempty"`
	AllergensHierarchy      []string `json:"allergens_hierarchy,omitempty"`
	TracesTags              []string `json:"traces_tags,omitempty"`
	StatesTags              []string `json:"states_tags,omitempty"`
	CategoriesTags          []string `json:"categories_tags,omitempty"`
	LabelsTags              []string `json:"labels_tags,omitempty"`
	IngredientsAnalysisTags []string `json:"ingredients_analysis_tags,omitempty"`
	LastModified            FlexInt  `json:"last_modified_t,omitempty"`
}

// HasState reports whether the product carries the given state tag.
func (p *Product) HasState(tag string) bool {
	for _, s := range p.StatesTags {
		if s == tag {
			return true
		}
	}
	return false
}

// IngredientsCompleted reports whether contributors marked the ingredients complete.
func (p *Product) IngredientsCompleted() bool {
	return p.HasState(StateIngredientsCompleted)
}

// Incomplete reports whether the product still needs contributions.
func (p *Product) Incomplete() bool {
	return p.ProductName == "" || p.HasState(StateToBeCompleted)
}

// ProductState is the response of the product endpoint. Status 0 means the
// barcode is unknown to the database.
type ProductState struct {
	Code          string   `json:"code"`
	Status        FlexInt  `json:"status"`
	StatusVerbose string   `json:"status_verbose,omitempty"`
	Product       *Product `json:"product,omitempty"`
}

// Found reports whether the response carries a product.
func (s *ProductState) Found() bool {
	return s != nil && s.Status != 0 && s.Product != nil
}

// SearchResult is one page of search results.
type SearchResult struct {
	Count    FlexInt   `json:"count"`
	Page     FlexInt   `json:"page"`
	PageSize FlexInt   `json:"page_size"`
	Products []Product `json:"products"`
}

// TagLine is the message shown on the home screen.
type TagLine struct {
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// TaglineLanguage groups the tagline of one language.
type TaglineLanguage struct {
	Language string  `json:"language"`
	TagLine  TagLine `json:"tagline"`
}

// TaxonomyNode is one entry of a taxonomy document.
type TaxonomyNode struct {
	Name     map[string]string `json:"name"`
	Wikidata map[string]string `json:"wikidata,omitempty"`
	Parents  []string          `json:"parents,omitempty"`
}

// TaxonomyDocument is a downloaded taxonomy keyed by tag (e.g. "en:gluten").
type TaxonomyDocument struct {
	Name         string
	Entries      map[string]TaxonomyNode
	LastModified time.Time
}

// InvalidBarcodeList is the list of barcodes known to be wrong.
type InvalidBarcodeList struct {
	Codes        []string
	LastModified time.Time
}

// FlexInt decodes integers the API sometimes sends as strings.
type FlexInt int64

func (v *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*v = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("flexint: invalid string %q", s)
		}
		*v = FlexInt(i)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("flexint: invalid json value: %s", string(b))
	}
	if i, err := n.Int64(); err == nil {
		*v = FlexInt(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("flexint: invalid number %s", n)
	}
	*v = FlexInt(int64(f))
	return nil
}
