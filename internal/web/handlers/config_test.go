package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConfigHandler_Get(t *testing.T) {
	cfg := testConfig()
	cfg.Web.MediaDir = "/srv/media"
	handler := NewConfigHandler(cfg, testLibrary())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var result ConfigResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result.Viewer.Map.DefaultZoom != 7 {
		t.Errorf("expected default zoom 7, got %v", result.Viewer.Map.DefaultZoom)
	}
	if result.Viewer.Detail.MiniMapZoom != 12 {
		t.Errorf("expected mini-map zoom 12, got %v", result.Viewer.Detail.MiniMapZoom)
	}
	if !result.MediaEnabled {
		t.Error("expected media to be enabled")
	}
	if result.CatalogError != "" {
		t.Errorf("expected no catalog error, got '%s'", result.CatalogError)
	}
}

func TestConfigHandler_Get_CatalogError(t *testing.T) {
	handler := NewConfigHandler(testConfig(), unavailableLibrary())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var result ConfigResponse
	json.Unmarshal(recorder.Body.Bytes(), &result)
	if result.CatalogError == "" {
		t.Error("expected the catalog load error to be reported")
	}
}
