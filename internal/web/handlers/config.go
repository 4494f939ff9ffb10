package handlers

import (
	"net/http"

	"github.com/kozaktomas/seichi-gallery/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config  *config.Config
	library *Library
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, library *Library) *ConfigHandler {
	return &ConfigHandler{
		config:  cfg,
		library: library,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Viewer       config.ViewerConfig `json:"viewer"`
	MediaEnabled bool                `json:"media_enabled"`
	CatalogError string              `json:"catalog_error,omitempty"`
}

// Get returns the viewer configuration and whether the catalog is available.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		Viewer:       h.config.Viewer,
		MediaEnabled: h.config.Web.MediaDir != "",
	}
	if h.library.Err != nil {
		response.CatalogError = h.library.Err.Error()
	}
	respondJSON(w, http.StatusOK, response)
}
