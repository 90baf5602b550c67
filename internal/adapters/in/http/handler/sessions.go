// internal/adapters/in/http/handler/sessions.go
package handler

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shnoopysol/gif-portal/internal/application/usecase"
)

// SessionCookie はブラウザセッションを識別する cookie 名
const SessionCookie = "portal_session"

// ControllerFactory builds the controller for a new browser session.
type ControllerFactory func() *usecase.ConnectionController

// SessionStore keeps one ConnectionController per browser session, in memory only.
type SessionStore struct {
	newController ControllerFactory
	idleTTL       time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	controller *usecase.ConnectionController
	lastSeen   time.Time
}

// NewSessionStore creates a store. idleTTL <= 0 keeps sessions until shutdown.
func NewSessionStore(f ControllerFactory, idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		newController: f,
		idleTTL:       idleTTL,
		now:           time.Now,
		sessions:      make(map[uuid.UUID]*sessionEntry),
	}
}

// Lookup returns the controller of an existing session, without creating one.
func (s *SessionStore) Lookup(r *http.Request) (*usecase.ConnectionController, bool) {
	id, ok := sessionID(r)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.controller, true
}

// Acquire returns the session controller, creating a session (and cookie) when needed.
// created is true for a fresh session; the caller runs the on-load flow for it.
func (s *SessionStore) Acquire(w http.ResponseWriter, r *http.Request) (c *usecase.ConnectionController, created bool) {
	if c, ok := s.Lookup(r); ok {
		return c, false
	}

	id := uuid.New()
	c = s.newController()

	s.mu.Lock()
	s.evictIdleLocked()
	s.sessions[id] = &sessionEntry{controller: c, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.Printf("[portal.http] new session id=%s sessions=%d", id.String()[:8], n)
	return c, true
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) evictIdleLocked() {
	if s.idleTTL <= 0 {
		return
	}
	cutoff := s.now().Add(-s.idleTTL)
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			e.controller.Disconnect()
			delete(s.sessions, id)
		}
	}
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	ck, err := r.Cookie(SessionCookie)
	if err != nil {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(ck.Value)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}
