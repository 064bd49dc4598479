package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionContext is the per-connection mutable state: the current interview
// question, the session id minted for it, and the interaction counter used
// to key synthesized audio. It lives exactly as long as its connection and
// is mutated only by the dispatcher.
type SessionContext struct {
	mu        sync.Mutex
	sessionID string
	question  string
	ordinal   atomic.Int64
}

func newSessionContext() *SessionContext {
	return &SessionContext{}
}

// StartSession records the minted session id and the question under
// discussion. The interaction counter restarts so each session's audio keys
// begin at interaction-0.
func (s *SessionContext) StartSession(sessionID, question string) {
	s.mu.Lock()
	s.sessionID = sessionID
	s.question = question
	s.ordinal.Store(0)
	s.mu.Unlock()
}

// EnsureSessionID returns the current session id, minting a local one if the
// client submits audio before any session_start.
func (s *SessionContext) EnsureSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}
	return s.sessionID
}

// Snapshot returns the session id and question for a detached turn.
func (s *SessionContext) Snapshot() (sessionID, question string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, s.question
}

// NextOrdinal hands out interaction numbers, starting at 0.
func (s *SessionContext) NextOrdinal() int64 {
	return s.ordinal.Add(1) - 1
}
