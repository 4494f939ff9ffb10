package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/seichi-gallery/internal/constants"
	"github.com/kozaktomas/seichi-gallery/internal/coordinator"
	"github.com/kozaktomas/seichi-gallery/internal/web/remote"
)

const sessionCookieName = "seichi_gallery_session"

// Session is one browser's gallery state: its coordinator and the outbox its
// widget commands are streamed from. Every lookup extends its expiry.
type Session struct {
	ID          string                   `json:"id"`
	CreatedAt   time.Time                `json:"created_at"`
	Coordinator *coordinator.Coordinator `json:"-"`
	Outbox      *remote.Outbox           `json:"-"`

	mu        sync.Mutex
	lastSeen  time.Time
	expiresAt time.Time
}

// ExpiresAt returns when the session ends unless it is used again.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// LastSeen returns the time of the last lookup.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
	s.expiresAt = now.Add(constants.SessionDuration)
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

// SessionFactory builds the coordinator for a new session, wired to out.
// An error means no session can be served, for example when the catalog failed to load.
type SessionFactory func(out *remote.Outbox) (*coordinator.Coordinator, error)

// SessionManager handles session creation and validation
type SessionManager struct {
	secret      []byte
	factory     SessionFactory
	sessions    map[string]*Session
	maxSessions int
	mu          sync.RWMutex
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewSessionManager creates a new session manager and starts its cleanup loop.
func NewSessionManager(secret string, factory SessionFactory) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "seichi-gallery-dev-secret-change-in-production"
	}
	sm := &SessionManager{
		secret:      []byte(secret),
		factory:     factory,
		sessions:    make(map[string]*Session),
		maxSessions: constants.MaxSessions,
		stop:        make(chan struct{}),
	}
	go sm.cleanupLoop(constants.SessionCleanupInterval)
	return sm
}

// CreateSession creates a session with a freshly started coordinator. At the session
// cap the least recently used session is ended first.
func (sm *SessionManager) CreateSession() (*Session, error) {
	if sm.factory == nil {
		return nil, errors.New("no session factory configured")
	}
	out := remote.NewOutbox()
	coord, err := sm.factory(out)
	if err != nil {
		out.Close()
		return nil, err
	}
	coord.Start()

	now := time.Now()
	session := &Session{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		Coordinator: coord,
		Outbox:      out,
	}
	session.touch(now)

	var evicted []*Session
	sm.mu.Lock()
	for len(sm.sessions) >= sm.maxSessions && len(sm.sessions) > 0 {
		victim := sm.leastRecentlyUsed()
		delete(sm.sessions, victim.ID)
		evicted = append(evicted, victim)
	}
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	for _, victim := range evicted {
		victim.Outbox.Close()
	}
	return session, nil
}

// leastRecentlyUsed must be called with sm.mu held.
func (sm *SessionManager) leastRecentlyUsed() *Session {
	var victim *Session
	var oldest time.Time
	for _, session := range sm.sessions {
		seen := session.LastSeen()
		if victim == nil || seen.Before(oldest) {
			victim, oldest = session, seen
		}
	}
	return victim
}

// GetSession retrieves a session by ID and extends its expiry.
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return nil
	}

	now := time.Now()
	if session.expired(now) {
		sm.DeleteSession(sessionID)
		return nil
	}
	session.touch(now)
	return session
}

// DeleteSession removes a session and ends its event streams.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if ok {
		session.Outbox.Close()
	}
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, r *http.Request, session *Session) {
	// Sign the session ID
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(constants.SessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a request
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	// Try cookie first
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		parts := strings.SplitN(cookie.Value, ".", 2)
		if len(parts) == 2 {
			sessionID := parts[0]
			signature := parts[1]
			if sm.verifySignature(sessionID, signature) {
				if session := sm.GetSession(sessionID); session != nil {
					return session
				}
			}
		}
	}

	// Try Authorization header
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		sessionID := strings.TrimPrefix(authHeader, "Bearer ")
		if session := sm.GetSession(sessionID); session != nil {
			return session
		}
	}

	return nil
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stop)
	})
}

func (sm *SessionManager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-sm.stop:
			return
		case now := <-ticker.C:
			sm.removeExpired(now)
		}
	}
}

// removeExpired deletes every session that expired before now.
func (sm *SessionManager) removeExpired(now time.Time) int {
	sm.mu.RLock()
	var expired []string
	for id, session := range sm.sessions {
		if session.expired(now) {
			expired = append(expired, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range expired {
		sm.DeleteSession(id)
	}
	return len(expired)
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// SessionData is a helper struct for JSON responses
type SessionData struct {
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
}

// ToJSON returns the session data for JSON response
func (s *Session) ToJSON() SessionData {
	return SessionData{
		SessionID: s.ID,
		ExpiresAt: s.ExpiresAt().Format(time.RFC3339),
	}
}

// MarshalJSON implements json.Marshaler
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON())
}
