package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
	"github.com/kozaktomas/seichi-gallery/internal/web/handlers"
	"github.com/kozaktomas/seichi-gallery/internal/web/remote"
)

func testServer(t *testing.T, library *handlers.Library, mediaDir string) *Server {
	t.Helper()
	cfg := config.Load()
	cfg.Web.MediaDir = mediaDir
	server := NewServer(cfg, library, nil)
	t.Cleanup(server.sessionManager.Stop)
	return server
}

func testLibrary() *handlers.Library {
	lat, lng := 34.9671, 135.7727
	return handlers.NewLibrary(catalog.New([]catalog.Photo{
		{ID: 1, Title: "伏見稲荷", AnimeFilterTag: "kyoto", AnimeTitleDisplay: "いなり、こんこん", RealSrc: "real/1.jpg", AnimeSrc: "anime/1.jpg",
			GeoTime: &geotime.Info{Latitude: &lat, Longitude: &lng}},
		{ID: 2, Title: "秋葉原", AnimeFilterTag: "tokyo", AnimeTitleDisplay: "シュタインズ・ゲート", RealSrc: "real/2.jpg", AnimeSrc: "anime/2.jpg",
			GeoTime: &geotime.Info{Issues: []geotime.Issue{geotime.IssueNoLocationOrTimestamp}}},
	}), nil)
}

func TestServer_HealthCheck(t *testing.T) {
	server := testServer(t, testLibrary(), "")
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", recorder.Code)
	}
}

func TestServer_SecurityHeaders(t *testing.T) {
	server := testServer(t, testLibrary(), "")
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/health", nil))

	if recorder.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected Content-Security-Policy header")
	}
}

func TestServer_Photos(t *testing.T) {
	server := testServer(t, testLibrary(), "")
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/photos?filter=tokyo", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var result handlers.PhotosResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result.Count != 1 || result.Photos[0].ID != 2 {
		t.Errorf("expected only photo 2, got %+v", result)
	}

	recorder = httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/photos/1", nil))
	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 for photo 1, got %d", recorder.Code)
	}
}

func TestServer_SessionCookieFlow(t *testing.T) {
	server := testServer(t, testLibrary(), "")

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/session", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	cookies := recorder.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	var first handlers.ActionResponse
	json.Unmarshal(recorder.Body.Bytes(), &first)

	req := httptest.NewRequest("POST", "/api/v1/session/toggle", strings.NewReader("{}"))
	req.AddCookie(cookies[0])
	recorder = httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if len(recorder.Result().Cookies()) != 0 {
		t.Error("expected the existing session to be reused")
	}
	var toggled handlers.ActionResponse
	json.Unmarshal(recorder.Body.Bytes(), &toggled)
	if toggled.State.View != "map" {
		t.Errorf("expected map view, got %s", toggled.State.View)
	}
	if len(toggled.State.PlottedIDs) != 1 {
		t.Errorf("expected one plotted photo, got %v", toggled.State.PlottedIDs)
	}
	if server.sessionManager.Len() != 1 {
		t.Errorf("expected one session, got %d", server.sessionManager.Len())
	}
	if first.Session == nil {
		t.Error("expected session data in the first response")
	}
}

func TestServer_OnlySessionFetchCreatesSessions(t *testing.T) {
	server := testServer(t, testLibrary(), "")

	for _, path := range []string{"/api/v1/session/toggle", "/api/v1/session/filter", "/api/v1/session/detail"} {
		recorder := httptest.NewRecorder()
		server.Router().ServeHTTP(recorder, httptest.NewRequest("POST", path, strings.NewReader("{}")))
		if recorder.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", path, recorder.Code)
		}
		if len(recorder.Result().Cookies()) != 0 {
			t.Errorf("%s: expected no session cookie", path)
		}
	}
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/api/v1/session/events", nil))
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("events: expected status 401, got %d", recorder.Code)
	}

	if server.sessionManager.Len() != 0 {
		t.Errorf("expected no sessions, got %d", server.sessionManager.Len())
	}
}

func TestServer_CatalogUnavailable(t *testing.T) {
	library := handlers.NewLibrary(nil, errors.New("fetching manifest: 404 Not Found"))
	server := testServer(t, library, "")

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/v1/health", http.StatusOK},
		{"/api/v1/config", http.StatusOK},
		{"/api/v1/photos", http.StatusServiceUnavailable},
		{"/api/v1/session", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", tt.path, nil))

			if recorder.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
		})
	}
	if server.sessionManager.Len() != 0 {
		t.Errorf("expected no sessions, got %d", server.sessionManager.Len())
	}
}

func TestServer_SPA(t *testing.T) {
	server := testServer(t, testLibrary(), "")

	tests := []struct {
		path            string
		wantContentType string
		wantBody        string
	}{
		{"/", "text/html; charset=utf-8", "<!DOCTYPE html>"},
		{"/some/client/route", "text/html; charset=utf-8", "<!DOCTYPE html>"},
		{"/assets/app.js", "application/javascript; charset=utf-8", "EventSource"},
		{"/assets/app.css", "text/css; charset=utf-8", "#map"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", tt.path, nil))

			if recorder.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != tt.wantContentType {
				t.Errorf("expected Content-Type '%s', got '%s'", tt.wantContentType, ct)
			}
			if !strings.Contains(recorder.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %q", tt.wantBody)
			}
		})
	}
}

func TestServer_ShellHandlesEveryCommand(t *testing.T) {
	server := testServer(t, testLibrary(), "")
	fetch := func(path string) string {
		t.Helper()
		recorder := httptest.NewRecorder()
		server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", path, nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, recorder.Code)
		}
		return recorder.Body.String()
	}
	script := fetch("/assets/app.js")
	page := fetch("/")

	for _, cmd := range []string{
		remote.CmdGalleryShow, remote.CmdGalleryHide, remote.CmdGalleryRender,
		remote.CmdMapShow, remote.CmdMapHide, remote.CmdMapCreate, remote.CmdMapMarkersSet,
		remote.CmdMapView, remote.CmdMapFit, remote.CmdMapInvalidate, remote.CmdMapPopupOpen, remote.CmdMapPopupClose,
		remote.CmdDetailShow, remote.CmdDetailHide, remote.CmdDetailRender, remote.CmdDetailPresentation, remote.CmdDetailTeardown,
	} {
		if !strings.Contains(script, "'"+cmd+"'") {
			t.Errorf("app.js does not handle %s", cmd)
		}
	}

	// Empty map notice overlay.
	if !strings.Contains(page, `id="map-empty"`) {
		t.Error("expected the empty map notice element in index.html")
	}
	if !strings.Contains(script, "empty_notice") {
		t.Error("expected app.js to render the empty map notice")
	}
	// Active thumbnail is kept on screen.
	if !strings.Contains(script, "scrollIntoView") {
		t.Error("expected app.js to scroll the active thumbnail into view")
	}
}

func TestServer_Media(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "real"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "real", "1.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := testServer(t, testLibrary(), dir)

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, httptest.NewRequest("GET", "/media/real/1.jpg", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if recorder.Body.String() != "jpeg bytes" {
		t.Errorf("unexpected body %q", recorder.Body.String())
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"/index.html":      "text/html; charset=utf-8",
		"/assets/logo.SVG": "image/svg+xml",
		"/file.unknown":    "application/octet-stream",
		"/noext":           "application/octet-stream",
	}
	for path, want := range tests {
		if got := contentTypeFor(path); got != want {
			t.Errorf("contentTypeFor(%s) = %s, want %s", path, got, want)
		}
	}
}
