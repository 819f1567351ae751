// Package session owns conversation session lifecycle: creation, history
// append, continuation state, and idle eviction.
package session

import (
	"sync"
	"time"

	"github.com/craftista/concierge/internal/domain"
)

// DefaultMaxMessages bounds the retained history window per session.
const DefaultMaxMessages = 20

// Store manages conversation sessions. Implementations must make Append
// idempotent by message ID: replaying the same append (a retried request)
// must not duplicate history.
type Store interface {
	// GetOrCreate returns a snapshot of the session with the given ID,
	// creating it on first use.
	GetOrCreate(id string) *domain.ConversationSession

	// Get returns a snapshot of a session, or nil if not found.
	Get(id string) *domain.ConversationSession

	// Append adds a message to a session, bumping TurnNumber for user
	// messages. Appending a message ID already in the retained window is
	// a no-op.
	Append(sessionID string, msg domain.Message)

	// SetActiveIntent records which agent, if any, holds the workflow.
	SetActiveIntent(sessionID string, it domain.Intent)

	// EvictIdle removes sessions idle longer than maxIdle and returns
	// how many were dropped.
	EvictIdle(maxIdle time.Duration) int

	// Count returns the number of live sessions.
	Count() int
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*domain.ConversationSession
	maxMessages int
	now         func() time.Time
}

// NewMemoryStore creates an in-memory session store. maxMessages <= 0 uses
// the default window.
func NewMemoryStore(maxMessages int) *MemoryStore {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &MemoryStore{
		sessions:    make(map[string]*domain.ConversationSession),
		maxMessages: maxMessages,
		now:         time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(id string) *domain.ConversationSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return snapshot(sess)
	}

	sess := &domain.ConversationSession{
		ID:        id,
		UserKey:   id,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.sessions[id] = sess
	return snapshot(sess)
}

func (s *MemoryStore) Get(id string) *domain.ConversationSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return snapshot(sess)
}

func (s *MemoryStore) Append(sessionID string, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}

	// Idempotence under retry: a replayed message ID is dropped.
	if msg.ID != "" {
		for _, existing := range sess.Messages {
			if existing.ID == msg.ID {
				return
			}
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	sess.Messages = append(sess.Messages, msg)
	if len(sess.Messages) > s.maxMessages {
		sess.Messages = sess.Messages[len(sess.Messages)-s.maxMessages:]
	}
	if msg.Role == domain.RoleUser {
		sess.TurnNumber++
	}
	sess.UpdatedAt = s.now()
}

func (s *MemoryStore) SetActiveIntent(sessionID string, it domain.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.ActiveIntent = it
		sess.UpdatedAt = s.now()
	}
}

func (s *MemoryStore) EvictIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// snapshot copies a session so callers never share the live slice.
func snapshot(sess *domain.ConversationSession) *domain.ConversationSession {
	cp := *sess
	cp.Messages = make([]domain.Message, len(sess.Messages))
	copy(cp.Messages, sess.Messages)
	return &cp
}
