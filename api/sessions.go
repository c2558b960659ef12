package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/chat"
)

const sessionCookie = "parley_session"

// webSession is one browser's selection and conversation. chat is nil until
// an API key is available.
//
// callMu is held for the whole of a chat call and by anything that replaces
// chat, so a reply always lands in the conversation the browser keeps. mu
// guards the fields and is never held across a vendor call. Lock order is
// callMu then mu.
type webSession struct {
	callMu sync.Mutex
	mu     sync.Mutex

	id       string
	provider string
	model    string
	apiKey   string
	chat     *chat.Session
	lastSeen time.Time
}

// sessionStore holds browser sessions in memory. Nothing survives a restart.
type sessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*webSession
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*webSession),
	}
}

// get returns the live session for id and refreshes its idle timer.
func (s *sessionStore) get(id string) (*webSession, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	now := s.now()
	if s.expired(ws, now) {
		delete(s.sessions, id)
		return nil, false
	}

	ws.lastSeen = now
	return ws, true
}

func (s *sessionStore) create(providerName, model string) *webSession {
	ws := &webSession{
		id:       uuid.NewString(),
		provider: providerName,
		model:    model,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws.lastSeen = s.now()
	s.sessions[ws.id] = ws
	return ws
}

// sweep drops every expired session and returns how many were removed.
func (s *sessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, ws := range s.sessions {
		if s.expired(ws, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// expired must be called with s.mu held.
func (s *sessionStore) expired(ws *webSession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(ws.lastSeen) > s.ttl
}
