package render

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one viewer's mount of a dashboard. It remembers which widgets
// already reported a view.
type Session struct {
	ID     string
	UserID string

	mu       sync.Mutex
	viewed   map[string]struct{}
	lastSeen time.Time
}

// MarkViewed records that widgetID was shown and reports whether this is
// the first time in the session.
func (s *Session) MarkViewed(widgetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.viewed[widgetID]; ok {
		return false
	}
	s.viewed[widgetID] = struct{}{}
	return true
}

// Viewed returns how many distinct widgets reported a view.
func (s *Session) Viewed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewed)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Sessions holds viewer sessions and expires idle ones.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates a store whose sessions expire after ttl without use.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id, creating it if needed. An empty id
// creates a session with a fresh id.
func (s *Sessions) Get(id, userID string) *Session {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.touch(now)
			return sess
		}
	} else {
		id = uuid.New().String()
	}

	sess := &Session{
		ID:       id,
		UserID:   userID,
		viewed:   make(map[string]struct{}),
		lastSeen: now,
	}
	s.sessions[id] = sess
	return sess
}

// Sweep drops sessions idle for longer than the ttl and returns how many
// were removed.
func (s *Sessions) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
