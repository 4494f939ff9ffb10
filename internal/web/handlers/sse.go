package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/web/middleware"
)

// setupSSEConnection finds the session and sets up SSE headers.
// Returns the session, flusher, and true on success. On failure, writes an error response and returns zero values with false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request) (*middleware.Session, http.Flusher, bool) {
	session, ok := sessionFromRequest(w, r)
	if !ok {
		return nil, nil, false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	return session, flusher, true
}

// Events streams the session's widget commands until the client disconnects or the
// session ends. The first event is the current state, followed by a redraw of the
// current view, so a reconnecting browser always rebuilds its widgets. A stream that
// falls too far behind is ended and the browser reconnects.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	session, flusher, ok := setupSSEConnection(w, r)
	if !ok {
		return
	}

	listener := session.Outbox.AddListener()
	defer session.Outbox.RemoveListener(listener)

	sendSSEEvent(w, flusher, "state", session.Coordinator.Snapshot())
	session.Coordinator.Redraw()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			if listener.Overflowed() {
				h.log.Warn("event stream fell behind, closing", zap.String("session", sanitizeForLog(session.ID)))
			}
			return
		case <-listener.Ready():
			for _, cmd := range listener.Next() {
				sendSSEEvent(w, flusher, cmd.Type, cmd)
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
