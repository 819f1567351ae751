package domain

import "time"

// Message roles within a conversation session.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message is a single turn entry in a conversation. Messages are immutable
// once appended to a session.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" | "agent"
	Content   string    `json:"content"`
	Intent    Intent    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSession tracks one user's ongoing chat with the assistant.
//
// ActiveIntent is non-empty when the previous agent turn ended with a
// clarifying question; the router then keeps dispatching to that agent until
// the workflow completes or an override signal fires. TurnNumber increases by
// one per user message and never decreases.
type ConversationSession struct {
	ID           string    `json:"id"`
	UserKey      string    `json:"userKey"`
	ActiveIntent Intent    `json:"activeIntent,omitempty"`
	TurnNumber   int       `json:"turnNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Messages     []Message `json:"messages,omitempty"`
}

// RecentHistory returns the last n messages, newest last.
func (s *ConversationSession) RecentHistory(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
