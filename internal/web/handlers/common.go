package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Library is the catalog loaded at startup, or the reason it could not be loaded.
type Library struct {
	Catalog *catalog.Catalog
	Err     error
}

// NewLibrary wraps the result of catalog.Load.
func NewLibrary(cat *catalog.Catalog, err error) *Library {
	if cat == nil && err == nil {
		err = errors.New("catalog not loaded")
	}
	return &Library{Catalog: cat, Err: err}
}

// catalog returns the loaded catalog or answers 503 with the load error.
func (l *Library) catalog(w http.ResponseWriter) (*catalog.Catalog, bool) {
	if l.Err != nil {
		respondError(w, http.StatusServiceUnavailable, l.Err.Error())
		return nil, false
	}
	return l.Catalog, true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
