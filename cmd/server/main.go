/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the PK reward engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Store presets and the catalogs directory
  5. Start the catalog reloader
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port             HTTP server port (default: 8080)
  -db               SQLite database path (default: pk.db)
                    Use ":memory:" for in-memory database
  -catalogs         Directory of JSON/YAML catalog definitions (optional)
  -reload-interval  How often to re-read -catalogs; 0 disables (default: 1m)
  -combo-timeout    Deadline for one combination search (default: 5s)
  -presets          Store the built-in catalogs at startup (default: true)
  -debug            Debug logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the catalog reloader
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database and a catalogs directory
  ./server -db="./data/pk.db" -catalogs=./catalogs

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/pk-reward-engine/api"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "pk.db", "SQLite database path")
	catalogDir := flag.String("catalogs", "", "Directory of catalog definitions")
	reloadInterval := flag.Duration("reload-interval", api.DefaultReloadInterval, "Catalog directory reload interval (0 disables)")
	comboTimeout := flag.Duration("combo-timeout", rewards.DefaultComboTimeout, "Combination search deadline")
	presets := flag.Bool("presets", true, "Store built-in catalogs at startup")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := run(*port, *dbPath, *catalogDir, *reloadInterval, *comboTimeout, *presets); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(port int, dbPath, catalogDir string, reloadInterval, comboTimeout time.Duration, presets bool) error {
	// Initialize store
	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	handler.Planner.ComboTimeout = comboTimeout
	handler.Planner.Logger = handler.Logger

	ctx := context.Background()
	if presets {
		if err := handler.SavePresets(ctx); err != nil {
			return err
		}
	}

	if catalogDir != "" {
		handler.Reloader = api.NewCatalogReloader(handler, catalogDir)
		res, err := handler.Reloader.RunNow(ctx)
		if err != nil {
			return fmt.Errorf("failed to load catalogs: %w", err)
		}
		slog.Info("catalogs loaded", "dir", catalogDir, "count", len(res.Saved))

		if reloadInterval > 0 {
			handler.Reloader.Interval = reloadInterval
			handler.Reloader.Start()
			defer handler.Reloader.Stop()
		}
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", port), "db", dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return err
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
