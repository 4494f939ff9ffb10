package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/coordinator"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
	"github.com/kozaktomas/seichi-gallery/internal/web/middleware"
)

// SessionHandler turns browser intents into coordinator transitions.
// Every action answers with the resulting state; widget commands go out over the event stream.
type SessionHandler struct {
	log *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{log: logger}
}

// ActionResponse is the state after an action.
type ActionResponse struct {
	Session *middleware.SessionData `json:"session,omitempty"`
	Outcome string                  `json:"outcome,omitempty"`
	State   coordinator.Snapshot    `json:"state"`
}

// ViewRequest selects a top-level view.
type ViewRequest struct {
	View coordinator.ViewName `json:"view"`
}

// FilterRequest selects a filter tag.
type FilterRequest struct {
	Tag string `json:"tag"`
}

// PhotoRequest names a photo.
type PhotoRequest struct {
	PhotoID *int `json:"photo_id"`
}

// NavigateRequest steps through the navigation set.
type NavigateRequest struct {
	Direction coordinator.Direction `json:"direction"`
}

// ViewportRequest reports the browser map's view.
type ViewportRequest struct {
	Center geo.LatLng `json:"center"`
	Zoom   float64    `json:"zoom"`
	Size   geo.Size   `json:"size"`
}

// sessionFromRequest returns the session attached by RequireSession.
func sessionFromRequest(w http.ResponseWriter, r *http.Request) (*middleware.Session, bool) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "no session")
		return nil, false
	}
	return session, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

func respondState(w http.ResponseWriter, session *middleware.Session, outcome string) {
	respondJSON(w, http.StatusOK, ActionResponse{
		Outcome: outcome,
		State:   session.Coordinator.Snapshot(),
	})
}

// Get returns the session id and its current state.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	data := session.ToJSON()
	respondJSON(w, http.StatusOK, ActionResponse{
		Session: &data,
		State:   session.Coordinator.Snapshot(),
	})
}

// SetView switches to the gallery or the map.
func (h *SessionHandler) SetView(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req ViewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.View {
	case coordinator.ViewGallery:
		session.Coordinator.ShowGallery()
	case coordinator.ViewMap:
		session.Coordinator.ShowMap()
	default:
		respondError(w, http.StatusBadRequest, "view must be 'gallery' or 'map'")
		return
	}
	respondState(w, session, "")
}

// Toggle flips between gallery and map.
func (h *SessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	session.Coordinator.ToggleMainView()
	respondState(w, session, "")
}

// SetFilter changes the active filter.
func (h *SessionHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req FilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session.Coordinator.SetFilter(req.Tag)
	respondState(w, session, "")
}

// OpenDetail shows a photo in the detail view.
func (h *SessionHandler) OpenDetail(w http.ResponseWriter, r *http.Request) {
	h.photoAction(w, r, "open detail", func(c *coordinator.Coordinator, id int) error {
		return c.OpenDetail(id)
	})
}

// Thumbnail opens another photo from the detail thumbnail strip.
func (h *SessionHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	h.photoAction(w, r, "thumbnail", func(c *coordinator.Coordinator, id int) error {
		return c.ThumbnailClicked(id)
	})
}

// Marker opens the photo behind a map popup.
func (h *SessionHandler) Marker(w http.ResponseWriter, r *http.Request) {
	h.photoAction(w, r, "marker", func(c *coordinator.Coordinator, id int) error {
		return c.MarkerClicked(id)
	})
}

func (h *SessionHandler) photoAction(w http.ResponseWriter, r *http.Request, action string, apply func(*coordinator.Coordinator, int) error) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req PhotoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PhotoID == nil {
		respondError(w, http.StatusBadRequest, "photo_id is required")
		return
	}
	if err := apply(session.Coordinator, *req.PhotoID); err != nil {
		if coordinator.IsPhotoNotFound(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("session action failed",
			zap.String("action", action),
			zap.String("session", sanitizeForLog(session.ID)),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondState(w, session, "")
}

// Navigate steps to the previous or next photo (keyboard navigation).
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req NavigateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Direction != coordinator.Next && req.Direction != coordinator.Previous {
		respondError(w, http.StatusBadRequest, "direction must be 'next' or 'previous'")
		return
	}
	outcome := string(coordinator.WheelIgnored)
	if session.Coordinator.Navigate(req.Direction) {
		outcome = string(coordinator.WheelNavigated)
	}
	respondState(w, session, outcome)
}

// Wheel handles a wheel gesture over the detail view. The outcome tells the browser
// whether to let the nested region scroll natively.
func (h *SessionHandler) Wheel(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	var ev coordinator.WheelEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	outcome := session.Coordinator.Wheel(ev)
	respondState(w, session, string(outcome))
}

// Image flips the single image between real photo and anime scene.
func (h *SessionHandler) Image(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	session.Coordinator.ImageClicked()
	respondState(w, session, "")
}

// Comparison toggles side-by-side display.
func (h *SessionHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	session.Coordinator.ToggleComparison()
	respondState(w, session, "")
}

// Viewport records the view of the browser map after the user moved it.
func (h *SessionHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req ViewportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcome := "ignored"
	if session.Coordinator.ReportViewport(geo.Viewport{Center: req.Center, Zoom: req.Zoom}, req.Size) {
		outcome = "accepted"
	}
	respondState(w, session, outcome)
}
