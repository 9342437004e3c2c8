// Package store provides CatalogStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/pk-reward-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	catalogs map[string]generic.Catalog
	runs     []generic.Run
}

func NewMemory() *Memory {
	return &Memory{catalogs: make(map[string]generic.Catalog)}
}

// SaveCatalog stores a copy so later edits by the caller don't leak in.
func (m *Memory) SaveCatalog(_ context.Context, cat generic.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs[cat.ID] = cat.Clone()
	return nil
}

func (m *Memory) GetCatalog(_ context.Context, id string) (generic.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cat, ok := m.catalogs[id]
	if !ok {
		return generic.Catalog{}, generic.ErrCatalogNotFound
	}
	return cat.Clone(), nil
}

func (m *Memory) ListCatalogs(_ context.Context) ([]generic.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]generic.Catalog, 0, len(m.catalogs))
	for _, c := range m.catalogs {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteCatalog(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalogs[id]; !ok {
		return generic.ErrCatalogNotFound
	}
	delete(m.catalogs, id)
	return nil
}

// RecordRun appends to the run history.
func (m *Memory) RecordRun(_ context.Context, run generic.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// ListRuns returns the newest runs first. An empty catalogID matches all.
func (m *Memory) ListRuns(_ context.Context, catalogID string, limit int) ([]generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []generic.Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		if catalogID != "" && r.CatalogID != catalogID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Reset clears all catalogs and runs.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogs = make(map[string]generic.Catalog)
	m.runs = nil
	return nil
}

var (
	_ generic.CatalogStore = (*Memory)(nil)
	_ generic.RunStore     = (*Memory)(nil)
)
