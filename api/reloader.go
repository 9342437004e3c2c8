/*
reloader.go - Periodic catalog directory reload

PURPOSE:
  Operators edit catalog definitions (JSON/YAML) on disk. The reloader
  re-reads the catalogs directory on an interval and saves every catalog
  whose definition differs from the stored copy. Catalogs removed from the
  store (delete or reset) are restored on the next pass.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Loads the whole directory through CatalogFactory.LoadDir
  - Compares each catalog's canonical JSON with the stored catalog's
  - A directory that fails to load leaves the store untouched

CONFIGURATION:
  - Interval: How often to check (default: 1 minute)
  - Enabled:  Whether the reloader is active (default: true)

USAGE:
  reloader := NewCatalogReloader(handler, "./catalogs")
  reloader.Start()
  // ... later
  reloader.Stop()

SEE ALSO:
  - factory/catalog.go: LoadDir
  - cmd/server/main.go: First pass at startup
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/warp/pk-reward-engine/generic"
)

// DefaultReloadInterval is how often the catalogs directory is re-read.
const DefaultReloadInterval = time.Minute

// ReloadResult reports one pass over the catalogs directory.
type ReloadResult struct {
	Saved     []string `json:"saved"`
	Unchanged int      `json:"unchanged"`
}

// CatalogReloader keeps stored catalogs in sync with a directory.
type CatalogReloader struct {
	Handler  *Handler
	Dir      string
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	passMu sync.Mutex // one pass at a time
}

// NewCatalogReloader creates a reloader for dir.
func NewCatalogReloader(h *Handler, dir string) *CatalogReloader {
	return &CatalogReloader{
		Handler:  h,
		Dir:      dir,
		Interval: DefaultReloadInterval,
		Enabled:  true,
		stop:     make(chan struct{}),
	}
}

func (cr *CatalogReloader) logger() *slog.Logger {
	if cr.Handler != nil && cr.Handler.Logger != nil {
		return cr.Handler.Logger
	}
	return slog.Default()
}

// Start begins the reloader.
func (cr *CatalogReloader) Start() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.Enabled || cr.Dir == "" {
		cr.logger().Info("catalog reloader disabled")
		return
	}
	if cr.ticker != nil {
		return
	}

	cr.stop = make(chan struct{})
	cr.ticker = time.NewTicker(cr.Interval)
	cr.wg.Add(1)

	go cr.run()

	cr.logger().Info("catalog reloader started", "dir", cr.Dir, "interval", cr.Interval)
}

// Stop stops the reloader and waits for an in-flight pass.
func (cr *CatalogReloader) Stop() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.ticker != nil {
		cr.ticker.Stop()
		close(cr.stop)
		cr.wg.Wait()
		cr.ticker = nil
		cr.logger().Info("catalog reloader stopped")
	}
}

func (cr *CatalogReloader) run() {
	defer cr.wg.Done()

	for {
		select {
		case <-cr.ticker.C:
			if _, err := cr.RunNow(context.Background()); err != nil {
				cr.logger().Error("catalog reload failed", "dir", cr.Dir, "error", err)
			}
		case <-cr.stop:
			return
		}
	}
}

// RunNow performs one pass immediately.
func (cr *CatalogReloader) RunNow(ctx context.Context) (ReloadResult, error) {
	cats, err := cr.Handler.CatalogFactory.LoadDir(cr.Dir)
	if err != nil {
		return ReloadResult{}, err
	}

	cr.passMu.Lock()
	defer cr.passMu.Unlock()

	res := ReloadResult{Saved: []string{}}
	for _, cat := range cats {
		changed, err := cr.differs(ctx, cat)
		if err != nil {
			return res, err
		}
		if !changed {
			res.Unchanged++
			continue
		}
		if err := cr.Handler.Store.SaveCatalog(ctx, cat); err != nil {
			return res, err
		}
		res.Saved = append(res.Saved, cat.ID)
	}

	if len(res.Saved) > 0 {
		cr.logger().Info("catalogs reloaded", "saved", res.Saved, "unchanged", res.Unchanged)
	}
	return res, nil
}

// differs reports whether cat is missing from the store or stored with a
// different definition.
func (cr *CatalogReloader) differs(ctx context.Context, cat generic.Catalog) (bool, error) {
	stored, err := cr.Handler.Store.GetCatalog(ctx, cat.ID)
	if generic.IsNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	want, err := json.Marshal(cr.Handler.CatalogFactory.ToJSON(cat))
	if err != nil {
		return false, err
	}
	have, err := json.Marshal(cr.Handler.CatalogFactory.ToJSON(stored))
	if err != nil {
		return false, err
	}
	return !bytes.Equal(want, have), nil
}

// ReloadCatalogs triggers a reload pass. Returns 404 when the server runs
// without a catalogs directory.
func (h *Handler) ReloadCatalogs(w http.ResponseWriter, r *http.Request) {
	if h.Reloader == nil {
		writeError(w, http.StatusNotFound, "No catalogs directory configured", nil)
		return
	}
	res, err := h.Reloader.RunNow(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to reload catalogs", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
