package web

import (
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/seichi-gallery/internal/constants"
	"github.com/kozaktomas/seichi-gallery/internal/web/handlers"
	"github.com/kozaktomas/seichi-gallery/internal/web/middleware"
	"github.com/kozaktomas/seichi-gallery/internal/web/static"
)

func (s *Server) setupRoutes() {
	// Create handlers
	configHandler := handlers.NewConfigHandler(s.config, s.library)
	photosHandler := handlers.NewPhotosHandler(s.library)
	sessionHandler := handlers.NewSessionHandler(s.log)

	// Health check (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(constants.RequestTimeout))

			r.Get("/config", configHandler.Get)

			// Catalog (read only)
			r.Get("/photos", photosHandler.List)
			r.Get("/photos/{id}", photosHandler.Get)
			r.Get("/filters", photosHandler.Filters)
			r.Get("/stats", photosHandler.Stats)
		})

		// Only fetching the session may create one
		r.With(
			chiMiddleware.Timeout(constants.RequestTimeout),
			middleware.StartSession(s.sessionManager),
		).Get("/session", sessionHandler.Get)

		// Session routes get the caller's coordinator injected
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(s.sessionManager))

			// Event stream (no timeout)
			r.Get("/session/events", sessionHandler.Events)

			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware.Timeout(constants.RequestTimeout))

				r.Post("/session/view", sessionHandler.SetView)
				r.Post("/session/toggle", sessionHandler.Toggle)
				r.Post("/session/filter", sessionHandler.SetFilter)

				// Detail
				r.Post("/session/detail", sessionHandler.OpenDetail)
				r.Post("/session/detail/navigate", sessionHandler.Navigate)
				r.Post("/session/detail/wheel", sessionHandler.Wheel)
				r.Post("/session/detail/image", sessionHandler.Image)
				r.Post("/session/detail/comparison", sessionHandler.Comparison)
				r.Post("/session/detail/thumbnail", sessionHandler.Thumbnail)

				// Map
				r.Post("/session/map/marker", sessionHandler.Marker)
				r.Post("/session/map/viewport", sessionHandler.Viewport)
			})
		})
	})

	// Local photo and scene files referenced by the manifest
	if dir := s.config.Web.MediaDir; dir != "" {
		s.router.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(dir))))
	}

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
}

// contentTypes maps static asset extensions to their content type.
var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".json":  "application/json",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".ico":   "image/x-icon",
	".woff2": "font/woff2",
	".woff":  "font/woff",
}

func contentTypeFor(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		if ct, ok := contentTypes[strings.ToLower(path[i:])]; ok {
			return ct
		}
	}
	return "application/octet-stream"
}

// serveSPA serves the single-page application
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	// Check if we have embedded frontend assets
	if static.HasDist() {
		fs := static.GetFileSystem()
		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}

		f, err := fs.Open(path)
		if err == nil {
			defer f.Close()

			stat, err := f.Stat()
			if err == nil && !stat.IsDir() {
				w.Header().Set("Content-Type", contentTypeFor(path))

				// Add cache headers for static assets
				if strings.HasPrefix(path, "/assets/") {
					w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				}

				w.WriteHeader(http.StatusOK)
				io.Copy(w, f)
				return
			}
		}

		// For SPA routing, serve index.html for non-asset paths
		if !strings.HasPrefix(path, "/assets/") {
			indexFile, err := fs.Open("/index.html")
			if err == nil {
				defer indexFile.Close()
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				io.Copy(w, indexFile)
				return
			}
		}
	}

	// Fallback: placeholder page if no frontend is embedded
	var catalogError string
	if s.library.Err != nil {
		catalogError = s.library.Err.Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fallbackPage.Execute(w, map[string]string{"CatalogError": catalogError})
}

var fallbackPage = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
    <meta charset="utf-8">
    <title>聖地写真ギャラリー</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
        .error { color: #ff6b6b; }
    </style>
</head>
<body>
    <div class="container">
        <h1>聖地写真ギャラリー</h1>
        {{if .CatalogError}}<p class="error">写真データの読み込みに失敗しました: {{.CatalogError}}</p>{{end}}
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
