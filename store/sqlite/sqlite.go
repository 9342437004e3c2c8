/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Keeps named reward catalogs and the history of computations run against
  them, so a workbook uploaded once can be optimized many times.

INTERFACES IMPLEMENTED:
  generic.CatalogStore: Named catalogs
  generic.RunStore:     Run history

KEY TABLES:
  catalogs: One row per catalog, options serialized as JSON in source order
  runs:     One row per computation (task, budget, summary)

OPTION ENCODING:
  Yields and rebates are stored as decimal strings, never floats, so a
  catalog read back compares exactly with the one that was saved.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql pooling.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging) so readers
  don't block the single writer. ":memory:" databases are pinned to one
  connection; each pooled connection would otherwise see its own empty
  database.

USAGE:
  store, err := sqlite.New("./data/pk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  planner := rewards.NewPlanner(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/pk-reward-engine/generic"
)

const memoryPath = ":memory:"

// runTimeLayout is fixed width so created_at sorts as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == memoryPath {
		dsn = dbPath + "?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == memoryPath {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS catalogs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		options_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		catalog_id TEXT NOT NULL,
		task TEXT NOT NULL,
		budget INTEGER NOT NULL,
		max_size INTEGER NOT NULL DEFAULT 0,
		summary TEXT,
		created_at TEXT NOT NULL
	);

	-- Run history is listed newest first, optionally per catalog
	CREATE INDEX IF NOT EXISTS idx_runs_catalog_created
		ON runs(catalog_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_created
		ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG STORE
// =============================================================================

// optionRecord is the JSON shape of one option inside options_json.
type optionRecord struct {
	Category string  `json:"category"`
	Cost     int     `json:"cost"`
	Yield    string  `json:"yield"`
	Rebate   *string `json:"rebate,omitempty"`
	Row      int     `json:"row,omitempty"`
}

func encodeOptions(options []generic.Option) (string, error) {
	records := make([]optionRecord, len(options))
	for i, o := range options {
		records[i] = optionRecord{Category: o.Category, Cost: o.Cost, Yield: o.Yield.String(), Row: o.Row}
		if o.Rebate != nil {
			r := o.Rebate.String()
			records[i].Rebate = &r
		}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeOptions(data string) ([]generic.Option, error) {
	var records []optionRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	options := make([]generic.Option, len(records))
	for i, r := range records {
		yield, err := decimal.NewFromString(r.Yield)
		if err != nil {
			return nil, fmt.Errorf("option %d: bad yield %q: %w", i, r.Yield, err)
		}
		options[i] = generic.Option{Category: r.Category, Cost: r.Cost, Yield: yield, Row: r.Row}
		if r.Rebate != nil {
			rebate, err := decimal.NewFromString(*r.Rebate)
			if err != nil {
				return nil, fmt.Errorf("option %d: bad rebate %q: %w", i, *r.Rebate, err)
			}
			options[i].Rebate = &rebate
		}
	}
	return options, nil
}

// SaveCatalog inserts or replaces a catalog. Replacing bumps its version.
func (s *Store) SaveCatalog(ctx context.Context, cat generic.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	optionsJSON, err := encodeOptions(cat.Options)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO catalogs (id, name, unit, options_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			options_json = excluded.options_json,
			version = catalogs.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, cat.ID, cat.Name, string(cat.Unit), optionsJSON, now, now)
	return err
}

// GetCatalog retrieves a catalog by ID.
func (s *Store) GetCatalog(ctx context.Context, id string) (generic.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cat generic.Catalog
	var unit, optionsJSON string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, unit, options_json FROM catalogs WHERE id = ?",
		id,
	).Scan(&cat.ID, &cat.Name, &unit, &optionsJSON)

	if errors.Is(err, sql.ErrNoRows) {
		return generic.Catalog{}, generic.ErrCatalogNotFound
	}
	if err != nil {
		return generic.Catalog{}, err
	}

	cat.Unit = generic.Unit(unit)
	cat.Options, err = decodeOptions(optionsJSON)
	if err != nil {
		return generic.Catalog{}, fmt.Errorf("catalog %s: %w", id, err)
	}
	return cat, nil
}

// ListCatalogs returns all catalogs ordered by ID.
func (s *Store) ListCatalogs(ctx context.Context) ([]generic.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, unit, options_json FROM catalogs ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalogs []generic.Catalog
	for rows.Next() {
		var cat generic.Catalog
		var unit, optionsJSON string
		if err := rows.Scan(&cat.ID, &cat.Name, &unit, &optionsJSON); err != nil {
			return nil, err
		}
		cat.Unit = generic.Unit(unit)
		if cat.Options, err = decodeOptions(optionsJSON); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", cat.ID, err)
		}
		catalogs = append(catalogs, cat)
	}
	return catalogs, rows.Err()
}

// DeleteCatalog removes a catalog. Its run history is kept.
func (s *Store) DeleteCatalog(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM catalogs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrCatalogNotFound
	}
	return nil
}

// =============================================================================
// RUN STORE
// =============================================================================

// RecordRun appends a run to the history.
func (s *Store) RecordRun(ctx context.Context, run generic.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = generic.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, catalog_id, task, budget, max_size, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CatalogID, run.Task, run.Budget, run.MaxSize,
		nullString(run.Summary), run.CreatedAt.UTC().Format(runTimeLayout),
	)
	return err
}

// ListRuns returns the newest runs first. An empty catalogID matches all
// catalogs; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, catalogID string, limit int) ([]generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, catalog_id, task, budget, max_size, summary, created_at
		FROM runs
	`
	var args []any
	if catalogID != "" {
		query += " WHERE catalog_id = ?"
		args = append(args, catalogID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []generic.Run
	for rows.Next() {
		var r generic.Run
		var summary sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.CatalogID, &r.Task, &r.Budget, &r.MaxSize, &summary, &createdAt); err != nil {
			return nil, err
		}
		r.Summary = summary.String
		r.CreatedAt, _ = time.Parse(runTimeLayout, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"runs", "catalogs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var (
	_ generic.CatalogStore = (*Store)(nil)
	_ generic.RunStore     = (*Store)(nil)
)
