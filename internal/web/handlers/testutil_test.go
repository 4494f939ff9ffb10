package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/coordinator"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
	"github.com/kozaktomas/seichi-gallery/internal/web/middleware"
	"github.com/kozaktomas/seichi-gallery/internal/web/remote"
)

func located(lat, lng float64) *geotime.Info {
	return &geotime.Info{Latitude: &lat, Longitude: &lng, CapturedAt: "2023-04-01T10:15:30"}
}

// testCatalog has two kyoto photos (one located) and one located tokyo photo.
func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Photo{
		{ID: 1, Title: "鴨川", AnimeFilterTag: "kyoto", AnimeTitleDisplay: "けいおん!", RealSrc: "real/1.jpg", AnimeSrc: "anime/1.jpg", GeoTime: located(35.0, 135.0)},
		{ID: 2, Title: "秋葉原", AnimeFilterTag: "tokyo", AnimeTitleDisplay: "ラブライブ!", RealSrc: "real/2.jpg", AnimeSrc: "anime/2.jpg", GeoTime: located(35.6984, 139.7731)},
		{ID: 3, Title: "宇治橋", AnimeFilterTag: "kyoto", AnimeTitleDisplay: "けいおん!", RealSrc: "real/3.jpg", AnimeSrc: "anime/3.jpg", GeoTime: &geotime.Info{Issues: []geotime.Issue{geotime.IssueNoLocationOrTimestamp}}},
	})
}

func testLibrary() *Library {
	return NewLibrary(testCatalog(), nil)
}

func unavailableLibrary() *Library {
	return NewLibrary(nil, errors.New("loading manifest photos.json: file does not exist"))
}

// testConfig creates a config with the embedded viewer defaults
func testConfig() *config.Config {
	return config.Load()
}

// newTestSession creates a started session over testCatalog.
func newTestSession(t *testing.T) *middleware.Session {
	t.Helper()
	return newTestSessionWith(t, testCatalog())
}

// newTestSessionWith creates a started session over cat.
func newTestSessionWith(t *testing.T, cat *catalog.Catalog) *middleware.Session {
	t.Helper()
	viewer := testConfig().Viewer
	sm := middleware.NewSessionManager("test-secret", func(out *remote.Outbox) (*coordinator.Coordinator, error) {
		opts := remote.MapOptions{MaxZoom: viewer.Map.MaxZoom, Size: geo.Size{Width: 1280, Height: 800}}
		return coordinator.New(cat, remote.Collaborators(out, opts, nil), viewer.Settings()), nil
	})
	t.Cleanup(sm.Stop)
	session, err := sm.CreateSession()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

// sessionRequest creates a request with the session in context
func sessionRequest(method, path, body string, session *middleware.Session) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.SetSessionInContext(req.Context(), session))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
