package sqlpilot

import "sync"

// SessionStore holds per-session conversation history. Appends for one
// session are serialized by a per-session lock; different sessions never
// block each other beyond the brief map access.
type SessionStore struct {
	mutex    sync.Mutex
	sessions map[string]*session
	window   int
}

type session struct {
	mutex sync.Mutex
	turns []Turn
}

// NewSessionStore creates a store keeping at most window turns per
// session. A non-positive window falls back to 5.
func NewSessionStore(window int) *SessionStore {
	if window <= 0 {
		window = 5
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		window:   window,
	}
}

// Get returns a copy of the session's history, oldest first.
func (s *SessionStore) Get(sessionID string) []Turn {
	sess := s.lookup(sessionID, false)
	if sess == nil {
		return nil
	}
	sess.mutex.Lock()
	defer sess.mutex.Unlock()
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append adds turns to the session atomically and trims to the window.
// A request's user and assistant turns are appended in one call so
// concurrent requests cannot interleave them.
func (s *SessionStore) Append(sessionID string, turns ...Turn) {
	if len(turns) == 0 {
		return
	}
	sess := s.lookup(sessionID, true)
	sess.mutex.Lock()
	defer sess.mutex.Unlock()
	sess.turns = append(sess.turns, turns...)
	if excess := len(sess.turns) - s.window; excess > 0 {
		sess.turns = append([]Turn(nil), sess.turns[excess:]...)
	}
}

// Clear removes the session's history.
func (s *SessionStore) Clear(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, sessionID)
}

func (s *SessionStore) lookup(sessionID string, create bool) *session {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok && create {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}
