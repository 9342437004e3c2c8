/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/catalogs/*       Catalog management, computations, exports
  /api/runs             Computation history
  /api/presets/*        Built-in catalogs
  /api/admin/*          Reload catalogs directory
  /api/reset            Database reset (dev only)
  /*                    Static files (frontend)

STATIC FILE SERVING:
  Serves a built frontend from web/dist/ when present, falling back to
  index.html for client-side routing. Without one, / lists the API.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/catalogs", func(r chi.Router) {
			r.Get("/", h.ListCatalogs)
			r.Post("/", h.CreateCatalog)
			r.Post("/upload", h.UploadCatalog)
			r.Get("/{id}", h.GetCatalog)
			r.Delete("/{id}", h.DeleteCatalog)

			r.Post("/{id}/optimize", h.Optimize)
			r.Post("/{id}/efficiency", h.Efficiency)
			r.Post("/{id}/combos", h.Combos)
			r.Post("/{id}/report", h.Report)

			r.Get("/{id}/export/allocation", h.ExportAllocation)
			r.Get("/{id}/export/combos", h.ExportCombos)
		})

		r.Get("/runs", h.ListRuns)

		// Preset routes
		r.Route("/presets", func(r chi.Router) {
			r.Get("/", h.ListPresets)
			r.Post("/load", h.LoadPresets)
		})

		r.Post("/admin/reload", h.ReloadCatalogs)
		r.Post("/reset", h.ResetDatabase)
	})

	// Serve static files
	// First try ./web/dist (development), then fall back to message
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>PK Reward Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>PK Reward Engine API</h1>
<p>No frontend is built. The JSON API is available under /api.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/catalogs">/api/catalogs</a> - List catalogs</li>
<li><a href="/api/presets">/api/presets</a> - List built-in catalogs</li>
<li><a href="/api/runs">/api/runs</a> - Recent computations</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
