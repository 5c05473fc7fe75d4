// Package session keeps the per-page-load state of a guest: the bound event,
// its comment cursor and the audio player.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/undangan/internal/audio"
	"github.com/dukerupert/undangan/internal/comments"
	"github.com/dukerupert/undangan/internal/model"
)

// CookieName is the cookie carrying the session id.
const CookieName = "undangan_session"

// Session is the state behind one rendered invitation page. Event and Guest
// are set once when the page loads and never change afterwards.
type Session struct {
	ID       string
	Event    *model.Event
	Guest    *model.Guest
	Token    string
	Comments *comments.Adapter
	Player   *audio.Player

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// GuestName returns the invited guest's name, or "".
func (s *Session) GuestName() string {
	if s.Guest == nil {
		return ""
	}
	return s.Guest.Name
}

// Store is an in-memory session registry keyed by uuid.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Add assigns s a fresh id and registers it.
func (st *Store) Add(s *Session) *Session {
	s.ID = uuid.NewString()
	s.touch(st.now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session for id and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// FromRequest looks up the session named by the request cookie.
func (st *Store) FromRequest(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return st.Get(c.Value)
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, s *Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Cleanup drops sessions idle for longer than ttl and returns how many were
// removed.
func (st *Store) Cleanup(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
