/*
handlers.go - HTTP API handlers for the PK reward engine

PURPOSE:
  Exposes catalogs and computations via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the planner.

ENDPOINTS:
  Catalogs:
    GET    /api/catalogs                      List catalogs
    POST   /api/catalogs                      Create catalog from JSON definition
    POST   /api/catalogs/upload               Create catalog from xlsx/csv upload
    GET    /api/catalogs/{id}                 Get catalog with options
    DELETE /api/catalogs/{id}                 Delete catalog

  Computations:
    POST   /api/catalogs/{id}/optimize        Greedy allocation
    POST   /api/catalogs/{id}/efficiency      Best single option
    POST   /api/catalogs/{id}/combos          Ranked combinations
    POST   /api/catalogs/{id}/report          All three at once

  Exports:
    GET    /api/catalogs/{id}/export/allocation?budget=&unit=
    GET    /api/catalogs/{id}/export/combos?budget=&unit=&max_size=&order=&top=

  History:
    GET    /api/runs?catalog_id=&limit=

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Catalog and run persistence
  - Planner: Task dispatch over the engine
  - CatalogFactory: JSON definition to Catalog conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Build a rewards.Request
  3. Call the planner
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed rows, configuration errors, bad definitions
  - 404: Catalog not found
  - 503: Combination search timed out
  - 500: Internal errors

  "Nothing fits the budget" is not an error: the response is 200 with an
  empty result and a message.

SEE ALSO:
  - dto.go: Request/response data structures
  - presets.go: Built-in catalogs
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/pk-reward-engine/factory"
	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/sheet"
)

// DefaultMaxUploadBytes caps workbook uploads.
const DefaultMaxUploadBytes = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs: catalogs plus run history.
type Store interface {
	generic.CatalogStore
	generic.RunStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          Store
	Planner        *rewards.Planner
	CatalogFactory *factory.CatalogFactory
	Reloader       *CatalogReloader
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store) *Handler {
	return &Handler{
		Store:          store,
		Planner:        rewards.NewPlanner(store),
		CatalogFactory: factory.NewCatalogFactory(),
		MaxUploadBytes: DefaultMaxUploadBytes,
		Logger:         slog.Default(),
	}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCatalogs returns all catalogs without their options.
func (h *Handler) ListCatalogs(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCatalogs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list catalogs", err)
		return
	}

	dtos := make([]CatalogSummaryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = CatalogSummaryDTO{ID: c.ID, Name: c.Name, Unit: string(c.Unit), Options: c.Len()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCatalog creates or replaces a catalog from a JSON definition.
func (h *Handler) CreateCatalog(w http.ResponseWriter, r *http.Request) {
	var req factory.CatalogJSON
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cat, err := h.CatalogFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid catalog definition", err)
		return
	}
	if err := h.Store.SaveCatalog(r.Context(), cat); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save catalog", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCatalogDTO(cat))
}

// UploadCatalog creates a catalog from a multipart upload.
//
// Form fields: file (xlsx or csv), id, name, unit, sheet, strict,
// lenient_yield. Without strict, malformed rows are skipped and reported
// as diagnostics.
func (h *Handler) UploadCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	var rows []generic.RawRow
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		rows, err = sheet.ReadCSV(file)
	} else {
		rows, err = sheet.ReadWorkbook(file, r.FormValue("sheet"))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	opts := generic.DefaultNormalizeOptions()
	opts.StrictYieldTyping = !formBool(r, "lenient_yield")

	var cat generic.Catalog
	var diags []generic.Diagnostic
	if formBool(r, "strict") {
		cat, err = generic.NormalizeStrict(rows, opts)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Malformed row", err)
			return
		}
	} else {
		cat, diags = generic.NormalizeWith(rows, opts)
	}

	cat.ID = strings.TrimSpace(r.FormValue("id"))
	if cat.ID == "" {
		cat.ID = strings.TrimSpace(strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename)))
	}
	if cat.ID == "" {
		writeError(w, http.StatusBadRequest, "Catalog id is required", nil)
		return
	}
	cat.Name = r.FormValue("name")
	if cat.Name == "" {
		cat.Name = header.Filename
	}
	cat.Unit = generic.Unit(r.FormValue("unit"))
	if cat.Unit == "" {
		cat.Unit = generic.UnitPoints
	}
	if !cat.Unit.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown unit", nil)
		return
	}

	if err := h.Store.SaveCatalog(r.Context(), cat); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save catalog", err)
		return
	}

	resp := UploadResponse{Catalog: toCatalogDTO(cat), Diagnostics: diags}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []generic.Diagnostic{}
	}
	for _, d := range diags {
		if d.Dropped {
			resp.Skipped++
		}
	}
	h.Logger.Info("catalog uploaded", "id", cat.ID, "options", cat.Len(), "skipped", resp.Skipped)
	writeJSON(w, http.StatusCreated, resp)
}

// GetCatalog returns one catalog with its options.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Store.GetCatalog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogDTO(cat))
}

// DeleteCatalog removes a catalog.
func (h *Handler) DeleteCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCatalog(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMPUTATION HANDLERS
// =============================================================================

// Optimize runs the greedy allocation.
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r, rewards.TaskOptimizeRewards)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(res.CatalogID, res.Unit, *res.Allocation, res.Message))
}

// Efficiency returns the best single option.
func (h *Handler) Efficiency(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r, rewards.TaskCalculateEfficiency)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, EfficiencyDTO{
		CatalogID: res.CatalogID,
		Unit:      string(res.Unit),
		Budget:    res.Budget,
		Best:      toBestDTO(res.Best),
		Message:   res.Message,
	})
}

// Combos returns ranked combinations.
func (h *Handler) Combos(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r, rewards.TaskGenerateCombinations)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CombosDTO{
		CatalogID: res.CatalogID,
		Unit:      string(res.Unit),
		Budget:    res.Budget,
		Combos:    toComboDTOs(res.Combos),
		Message:   res.Message,
	})
}

// Report returns allocation, best option and top combos together.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCompute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rep, err := h.Planner.Report(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, task rewards.Task) (rewards.Result, bool) {
	req, err := decodeCompute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return rewards.Result{}, false
	}
	req.Task = task
	res, err := h.Planner.Run(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, err)
		return rewards.Result{}, false
	}
	return res, true
}

func decodeCompute(r *http.Request) (rewards.Request, error) {
	var body ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return rewards.Request{}, err
	}
	return computeRequest(chi.URLParam(r, "id"), body), nil
}

func computeRequest(catalogID string, body ComputeRequest) rewards.Request {
	return rewards.Request{
		CatalogID:  catalogID,
		Budget:     body.Budget,
		BudgetUnit: generic.Unit(body.Unit),
		MaxSize:    body.MaxSize,
		Order:      generic.ComboOrder(body.Order),
		Top:        body.Top,
	}
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// ExportAllocation streams the allocation as an xlsx workbook.
func (h *Handler) ExportAllocation(w http.ResponseWriter, r *http.Request) {
	body, err := queryCompute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	req := computeRequest(chi.URLParam(r, "id"), body)
	req.Task = rewards.TaskOptimizeRewards
	res, err := h.Planner.Run(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	from := req.BudgetUnit
	if from == "" {
		from = res.Unit
	}
	exp := sheet.AllocationExport{
		Diamonds:   rewards.Convert(body.Budget, from, rewards.UnitDiamonds),
		Unit:       res.Unit,
		Allocation: *res.Allocation,
	}
	writeXLSX(w, res.CatalogID+"-allocation.xlsx", func(buf io.Writer) error {
		return sheet.WriteAllocation(buf, exp)
	})
}

// ExportCombos streams ranked combo summaries as an xlsx workbook.
func (h *Handler) ExportCombos(w http.ResponseWriter, r *http.Request) {
	body, err := queryCompute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	req := computeRequest(chi.URLParam(r, "id"), body)
	req.Task = rewards.TaskSummarizeCombo
	res, err := h.Planner.Run(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeXLSX(w, res.CatalogID+"-combos.xlsx", func(buf io.Writer) error {
		return sheet.WriteCombos(buf, res.Summaries)
	})
}

func queryCompute(r *http.Request) (ComputeRequest, error) {
	q := r.URL.Query()
	var body ComputeRequest
	var err error
	if body.Budget, err = queryInt(q.Get("budget")); err != nil {
		return body, fmt.Errorf("budget: %w", err)
	}
	if body.MaxSize, err = queryInt(q.Get("max_size")); err != nil {
		return body, fmt.Errorf("max_size: %w", err)
	}
	if body.Top, err = queryInt(q.Get("top")); err != nil {
		return body, fmt.Errorf("top: %w", err)
	}
	body.Unit = q.Get("unit")
	body.Order = q.Get("order")
	return body, nil
}

// writeXLSX renders the workbook fully before writing headers so a render
// failure can still produce a JSON error.
func writeXLSX(w http.ResponseWriter, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render workbook", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// HISTORY HANDLERS
// =============================================================================

// ListRuns returns recorded computations, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	if limit == 0 {
		limit = 50
	}
	runs, err := h.Store.ListRuns(r.Context(), r.URL.Query().Get("catalog_id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps planner and store errors to HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Catalog not found", err)
	case errors.Is(err, generic.ErrComboLimitExceeded):
		writeError(w, http.StatusBadRequest, "Too many combinations", err)
	case generic.IsClientError(err), errors.Is(err, rewards.ErrUnknownTask), errors.Is(err, rewards.ErrUnknownUnit):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Combination search timed out", err)
	default:
		h.Logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}
