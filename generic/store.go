/*
store.go - Persistence interfaces for catalogs and run history

PURPOSE:
  The engine itself never persists anything. Service wrappers do: they
  keep named catalogs so a caller can upload a workbook once and compute
  against it many times, and they keep a history of computations.
  These interfaces are the boundary between that wrapper and a database.

KEY INTERFACES:
  CatalogStore: Named catalogs (save, get, list, delete)
  RunStore:     Optional run history (record, list)

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - rewards/planner.go: Resolves catalogs and records runs
*/
package generic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStoreRequired is returned when an operation requires a specific store capability.
var ErrStoreRequired = errors.New("operation requires extended store interface")

// CatalogStore persists named catalogs.
type CatalogStore interface {
	// SaveCatalog inserts or replaces the catalog with the same ID.
	SaveCatalog(ctx context.Context, cat Catalog) error

	// GetCatalog returns ErrCatalogNotFound when id is unknown.
	GetCatalog(ctx context.Context, id string) (Catalog, error)

	// ListCatalogs returns catalogs ordered by ID.
	ListCatalogs(ctx context.Context) ([]Catalog, error)

	// DeleteCatalog returns ErrCatalogNotFound when id is unknown.
	DeleteCatalog(ctx context.Context, id string) error
}

// Run is one recorded computation.
type Run struct {
	ID        string
	CatalogID string
	Task      string
	Budget    int
	MaxSize   int
	Summary   string
	CreatedAt time.Time
}

// NewRunID returns a unique run ID.
func NewRunID() string {
	return "run-" + uuid.NewString()
}

// RunStore is implemented by stores that keep run history.
type RunStore interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, catalogID string, limit int) ([]Run, error)
}
