package http

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/render"
)

// Index describes the API on GET /
type Index struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Dashboard string            `json:"dashboard"`
	Endpoints map[string]string `json:"endpoints"`
}

// Root handles GET /
func Root(version string) http.HandlerFunc {
	index := Index{
		Message:   "API Dashboard Immobilier Paris",
		Version:   version,
		Dashboard: "/app/",
		Endpoints: map[string]string{
			"health":          "/api/health",
			"stats":           "/api/stats",
			"arrondissements": "/api/arrondissements",
			"prix":            "/api/prix/*",
			"logements":       "/api/logements/*",
			"transport":       "/api/transport/*",
			"pollution":       "/api/pollution/*",
			"metrics":         "/metrics",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, index)
	}
}

// Static serves the dashboard front end from fsys under prefix. Unknown
// paths without an extension fall back to index.html.
func Static(prefix string, fsys fs.FS) http.Handler {
	files := http.FileServer(http.FS(fsys))
	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || name == "." {
			serveIndex(w, r, fsys)
			return
		}
		if _, err := fs.Stat(fsys, name); err != nil {
			if path.Ext(name) == "" {
				serveIndex(w, r, fsys)
				return
			}
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}

func serveIndex(w http.ResponseWriter, r *http.Request, fsys fs.FS) {
	page, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		http.Error(w, "Dashboard page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}
