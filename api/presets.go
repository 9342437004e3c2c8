/*
presets.go - Built-in catalog loading for demos and first runs

PURPOSE:
  Lets a fresh server be useful before anyone uploads a workbook. Presets
  are the catalogs defined in rewards/presets.go; loading stores them
  under their preset IDs, replacing any catalog with the same ID.

USAGE VIA API:
  GET  /api/presets
  POST /api/presets/load
  {"preset_ids": ["pk-points"]}     (empty list loads all)

  POST /api/reset
  Clears every catalog and run. Development only.

SEE ALSO:
  - rewards/presets.go: Preset definitions
  - handlers.go: Catalog handlers
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
)

// resetter is implemented by stores that can be wiped.
type resetter interface {
	Reset(ctx context.Context) error
}

// ListPresets returns the built-in catalogs.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := rewards.PresetCatalogs()
	dtos := make([]PresetDTO, len(presets))
	for i, p := range presets {
		dtos[i] = PresetDTO{ID: p.ID, Name: p.Name, Unit: string(p.Unit), Options: p.Len()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadPresets stores the selected presets and returns them.
func (h *Handler) LoadPresets(w http.ResponseWriter, r *http.Request) {
	var req LoadPresetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cats, err := selectPresets(req.PresetIDs)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown preset", err)
		return
	}

	dtos := make([]CatalogDTO, len(cats))
	for i, cat := range cats {
		if err := h.Store.SaveCatalog(r.Context(), cat); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save preset", err)
			return
		}
		dtos[i] = toCatalogDTO(cat)
	}
	h.Logger.Info("presets loaded", "count", len(cats))
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all catalogs and runs.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.Store.(resetter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store cannot be reset", generic.ErrStoreRequired)
		return
	}
	if err := rs.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// SavePresets stores every built-in catalog. Used at server startup.
func (h *Handler) SavePresets(ctx context.Context) error {
	for _, cat := range rewards.PresetCatalogs() {
		if err := h.Store.SaveCatalog(ctx, cat); err != nil {
			return fmt.Errorf("preset %s: %w", cat.ID, err)
		}
	}
	return nil
}

func selectPresets(ids []string) ([]generic.Catalog, error) {
	if len(ids) == 0 {
		return rewards.PresetCatalogs(), nil
	}
	cats := make([]generic.Catalog, 0, len(ids))
	for _, id := range ids {
		cat, ok := rewards.Preset(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", generic.ErrCatalogNotFound, id)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}
