package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/filter"
)

// PhotosHandler serves the read-only catalog.
type PhotosHandler struct {
	library *Library
}

// NewPhotosHandler creates a new photos handler
func NewPhotosHandler(library *Library) *PhotosHandler {
	return &PhotosHandler{library: library}
}

// PhotosResponse is a filtered photo list.
type PhotosResponse struct {
	Filter string          `json:"filter"`
	Count  int             `json:"count"`
	Photos []catalog.Photo `json:"photos"`
}

// List returns the photos in manifest order, optionally restricted by ?filter=tag.
// Unknown tags list everything.
func (h *PhotosHandler) List(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.library.catalog(w)
	if !ok {
		return
	}
	all := cat.All()
	state := filter.New(all)
	state.SetActive(r.URL.Query().Get("filter"))
	photos := state.Apply(all)

	if r.URL.Query().Get("located") == "true" {
		located := photos[:0]
		for i := range photos {
			if photos[i].HasLocation() {
				located = append(located, photos[i])
			}
		}
		photos = located
	}

	respondJSON(w, http.StatusOK, PhotosResponse{
		Filter: state.Active(),
		Count:  len(photos),
		Photos: photos,
	})
}

// Get returns a single photo by id.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.library.catalog(w)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}
	photo, found := cat.ByID(id)
	if !found {
		respondError(w, http.StatusNotFound, "photo not found")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

// Filters returns the selectable filters, the All entry first.
func (h *PhotosHandler) Filters(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.library.catalog(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, filter.New(cat.All()).Choices())
}

// Stats returns extraction statistics for the catalog.
func (h *PhotosHandler) Stats(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.library.catalog(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cat.Stats())
}
