// Package session keeps the live calendar widgets, one per visitor, keyed
// by a random id.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"petalz/internal/calendar"
)

// DefaultTimeout is how long an idle session survives.
const DefaultTimeout = 30 * time.Minute

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Session is one visitor's calendar.
type Session struct {
	ID        string
	Calendar  *calendar.Calendar
	StartedAt time.Time
	updatedAt time.Time
	mu        sync.Mutex
}

// Touch marks the session as used now.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = now
}

// UpdatedAt is the last time the session was used.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// IsExpired checks if session has been idle longer than timeout.
func (s *Session) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.UpdatedAt()) > timeout
}

// Factory builds the calendar for a new session id.
type Factory func(id string) *calendar.Calendar

// Store manages calendar sessions.
type Store struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
	now      func() time.Time
	onChange func(active int)
}

// NewStore creates a store whose sessions expire after timeout.
func NewStore(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// OnChange registers a callback receiving the session count after every
// create, delete or cleanup.
func (ss *Store) OnChange(fn func(active int)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.onChange = fn
}

// Create starts a session around the calendar built by newCalendar.
func (ss *Store) Create(newCalendar Factory) *Session {
	id := uuid.NewString()
	now := ss.now()
	s := &Session{ID: id, Calendar: newCalendar(id), StartedAt: now, updatedAt: now}

	ss.mu.Lock()
	ss.sessions[id] = s
	n, fn := len(ss.sessions), ss.onChange
	ss.mu.Unlock()

	notify(fn, n)
	return s
}

// Get returns a live session and refreshes its idle timer.
func (ss *Store) Get(id string) (*Session, error) {
	ss.mu.RLock()
	s, ok := ss.sessions[id]
	ss.mu.RUnlock()

	now := ss.now()
	if !ok || s.IsExpired(now, ss.timeout) {
		return nil, ErrNotFound
	}
	s.Touch(now)
	return s, nil
}

// Delete removes a session.
func (ss *Store) Delete(id string) error {
	ss.mu.Lock()
	_, ok := ss.sessions[id]
	delete(ss.sessions, id)
	n, fn := len(ss.sessions), ss.onChange
	ss.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	notify(fn, n)
	return nil
}

// Len is the number of stored sessions, expired ones included until the
// next Cleanup.
func (ss *Store) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// Cleanup removes expired sessions.
func (ss *Store) Cleanup() int {
	now := ss.now()

	ss.mu.Lock()
	removed := 0
	for id, s := range ss.sessions {
		if s.IsExpired(now, ss.timeout) {
			delete(ss.sessions, id)
			removed++
		}
	}
	n, fn := len(ss.sessions), ss.onChange
	ss.mu.Unlock()

	notify(fn, n)
	return removed
}

func notify(fn func(int), n int) {
	if fn != nil {
		fn(n)
	}
}
