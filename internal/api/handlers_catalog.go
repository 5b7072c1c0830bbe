// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ManuGH/foodscan/internal/api/problem"
	"github.com/ManuGH/foodscan/internal/history"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/offapi"
	"github.com/ManuGH/foodscan/internal/offline"
	"github.com/ManuGH/foodscan/internal/summary"
	"github.com/ManuGH/foodscan/internal/taxonomy"
	"github.com/ManuGH/foodscan/internal/validate"
)

// pathBarcode trims the {code} parameter, or writes 422 when it is not a barcode.
func pathBarcode(w http.ResponseWriter, r *http.Request, code Code) (string, bool) {
	code = strings.TrimSpace(code)
	if !validate.ValidBarcode(code, false) {
		writeInvalidBarcode(w, r, code)
		return "", false
	}
	return code, true
}

func (s *Server) ListOfflineProducts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Offline == nil {
		writeNotConfigured(w, r, "offline storage")
		return
	}
	products, err := s.deps.Offline.List(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if products == nil {
		products = []offline.Product{}
	}
	writeJSON(w, http.StatusOK, OfflineProductList{Products: products, Count: len(products)})
}

func (s *Server) GetOfflineProduct(w http.ResponseWriter, r *http.Request, code Code) {
	if s.deps.Offline == nil {
		writeNotConfigured(w, r, "offline storage")
		return
	}
	code, ok := pathBarcode(w, r, code)
	if !ok {
		return
	}
	p, err := s.deps.Offline.Get(r.Context(), code)
	if errors.Is(err, offline.ErrNotFound) {
		problem.NotFound(w, r, "no offline product for "+code)
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveOfflineProduct saves a product the user captured. Saving publishes a
// refresh, so a product card showing this barcode is redrawn.
func (s *Server) SaveOfflineProduct(w http.ResponseWriter, r *http.Request, code Code) {
	if s.deps.Offline == nil {
		writeNotConfigured(w, r, "offline storage")
		return
	}
	code, ok := pathBarcode(w, r, code)
	if !ok {
		return
	}
	p, err := decodeBody[SaveOfflineProductJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	if p.Barcode == "" {
		p.Barcode = code
	}
	if p.Barcode != code {
		problem.BadRequest(w, r, "body barcode does not match the path")
		return
	}
	if err := validate.Struct(p); err != nil {
		writeBindError(w, r, err)
		return
	}
	saved, err := s.deps.Offline.Save(r.Context(), p)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(log.FieldEvent, "offline.saved").Str(log.FieldBarcode, code).Msg("offline product saved")
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) DeleteOfflineProduct(w http.ResponseWriter, r *http.Request, code Code) {
	if s.deps.Offline == nil {
		writeNotConfigured(w, r, "offline storage")
		return
	}
	code, ok := pathBarcode(w, r, code)
	if !ok {
		return
	}
	err := s.deps.Offline.Delete(r.Context(), code)
	if errors.Is(err, offline.ErrNotFound) {
		problem.NotFound(w, r, "no offline product for "+code)
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request, params ListHistoryParams) {
	if s.deps.History == nil {
		writeNotConfigured(w, r, "history")
		return
	}
	limit := s.config().HistoryLimit
	if params.Limit != nil {
		if n := *params.Limit; n < 1 || n > maxHistoryLimit {
			problem.BadRequest(w, r, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = *params.Limit
	}
	entries, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, HistoryList{Entries: entries, Count: len(entries)})
}

func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeNotConfigured(w, r, "history")
		return
	}
	if err := s.deps.History.Clear(r.Context()); err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetProductSummary(w http.ResponseWriter, r *http.Request, code Code, params GetProductSummaryParams) {
	if s.deps.Products == nil || s.deps.Summaries == nil {
		writeNotConfigured(w, r, "product summary")
		return
	}
	code, ok := pathBarcode(w, r, code)
	if !ok {
		return
	}
	state, err := s.deps.Products.ProductFor(r.Context(), code, offapi.PurposeSummary)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	if !state.Found() {
		problem.NotFound(w, r, "product "+code+" is not in the database")
		return
	}
	sum, err := s.deps.Summaries.Summarize(r.Context(), state.Product, summary.Language(s.language(r, params.Lang)))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request, params SearchProductsParams) {
	if s.deps.Search == nil {
		writeNotConfigured(w, r, "search")
		return
	}
	terms := strings.TrimSpace(params.Q)
	if terms == "" {
		problem.BadRequest(w, r, "q is required")
		return
	}
	page := 1
	if params.Page != nil {
		if *params.Page < 1 {
			problem.BadRequest(w, r, "page must be a positive integer")
			return
		}
		page = *params.Page
	}
	res, err := s.deps.Search.Search(r.Context(), terms, page)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) GetHome(w http.ResponseWriter, r *http.Request, params GetHomeParams) {
	if s.deps.Home == nil {
		writeNotConfigured(w, r, "home")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Home.Get(r.Context(), s.language(r, params.Lang)))
}

func (s *Server) ListAllergens(w http.ResponseWriter, r *http.Request, params ListAllergensParams) {
	if s.deps.Allergens == nil {
		writeNotConfigured(w, r, "allergens")
		return
	}
	lang := summary.Language(s.language(r, params.Lang))
	var (
		list []taxonomy.AllergenName
		err  error
	)
	if params.Enabled != nil {
		list, err = s.deps.Allergens.AllergenNames(r.Context(), *params.Enabled, lang)
	} else {
		list, err = s.deps.Allergens.AllergensByLanguage(r.Context(), lang)
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if list == nil {
		list = []taxonomy.AllergenName{}
	}
	writeJSON(w, http.StatusOK, AllergenList{Language: lang, Allergens: list})
}

func (s *Server) SetAllergen(w http.ResponseWriter, r *http.Request, tag string) {
	if s.deps.Allergens == nil {
		writeNotConfigured(w, r, "allergens")
		return
	}
	req, err := decodeJSON[SetAllergenJSONRequestBody](r)
	if err != nil {
		writeBindError(w, r, err)
		return
	}
	err = s.deps.Allergens.SetAllergenEnabled(r.Context(), tag, *req.Enabled)
	if errors.Is(err, taxonomy.ErrNotFound) {
		problem.NotFound(w, r, "unknown allergen "+tag)
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AllergenState{Tag: tag, Enabled: *req.Enabled})
}

// SyncTaxonomies runs a sync now. Partial failures still answer 200 with
// the per-kind report; the error text lists the failed kinds.
func (s *Server) SyncTaxonomies(w http.ResponseWriter, r *http.Request) {
	if s.deps.Taxonomy == nil {
		writeNotConfigured(w, r, "taxonomy sync")
		return
	}
	rep, err := s.deps.Taxonomy.Sync(r.Context())
	if err != nil && len(rep) == 0 {
		writeUpstreamError(w, r, err)
		return
	}
	out := SyncResult{Report: rep}
	if err != nil {
		msg := err.Error()
		out.Error = &msg
	}
	writeJSON(w, http.StatusOK, out)
}
