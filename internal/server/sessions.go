package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	luma "github.com/Z2ZATL/Luma-CL/pkg/embed"
)

// Session is a VM whose globals persist across Execute calls.
type Session struct {
	ID string

	// mu serializes executions so output capture stays per request
	mu       sync.Mutex
	vm       *luma.VM
	lastUsed time.Time
}

func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// SessionStore manages execution sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session.
func (s *SessionStore) Create() *Session {
	session := &Session{
		ID:       uuid.NewString(),
		vm:       luma.New(),
		lastUsed: time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Infof("opened session %s", session.ID)
	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Destroy removes a session and closes its VM. It reports whether the
// session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	session.mu.Lock()
	session.vm.Close()
	session.mu.Unlock()
	log.Infof("closed session %s", id)
	return true
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep destroys sessions idle for longer than ttl and returns how many
// were removed.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	var expired []string
	s.mu.RLock()
	for id, session := range s.sessions {
		if !session.mu.TryLock() {
			continue // busy
		}
		if session.lastUsed.Before(cutoff) {
			expired = append(expired, id)
		}
		session.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, id := range expired {
		s.Destroy(id)
	}
	return len(expired)
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
