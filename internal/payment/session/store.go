package session

import (
	"sync"
	"time"

	"paypaladin/internal/model"
)

// Store holds one ConversationSession per user. It is the only component
// that persists session state; everything else receives session values.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*model.ConversationSession
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*model.ConversationSession)}
}

// Get returns a copy of the session for userID, creating an Idle session
// if none exists yet.
func (s *Store) Get(userID string) model.ConversationSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(userID)
}

// Update applies mutate atomically to the session for userID, creating an
// Idle session first if needed. LastActivity is refreshed on every update.
func (s *Store) Update(userID string, mutate func(*model.ConversationSession)) model.ConversationSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(userID)
	mutate(sess)
	sess.LastActivity = time.Now()
	return *sess
}

// SweepAbandoned resets slot-filling sessions that have been quiet longer
// than ttl back to Idle. Sessions themselves are never deleted. Returns the
// number of sessions reset.
func (s *Store) SweepAbandoned(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	reset := 0
	for _, sess := range s.sessions {
		if sess.State == model.StateAwaitingSlots && sess.LastActivity.Before(cutoff) {
			resetToIdle(sess)
			reset++
		}
	}
	return reset
}

func (s *Store) getOrCreateLocked(userID string) *model.ConversationSession {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &model.ConversationSession{
			UserID:       userID,
			State:        model.StateIdle,
			LastActivity: time.Now(),
		}
		s.sessions[userID] = sess
	}
	return sess
}

// ResetToIdle clears all pending dialogue state on the given session value.
// Intended for use inside Update mutations.
func ResetToIdle(sess *model.ConversationSession) {
	resetToIdle(sess)
}

func resetToIdle(sess *model.ConversationSession) {
	sess.State = model.StateIdle
	sess.PendingIntent = nil
	sess.PendingTransferID = ""
	sess.DialogueContext = nil
	sess.RetryCount = 0
}
