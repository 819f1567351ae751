// Package agents holds the pluggable per-intent conversation handlers and
// their registry.
package agents

import (
	"context"
	"regexp"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/llm"
)

// Turn is everything an agent sees for one dispatch. Message is the
// sanitized user text; Session is a read-only snapshot taken under the
// router's per-session lock.
type Turn struct {
	Message     string
	Session     *domain.ConversationSession
	Integration string
}

// Result is an agent's output for a turn. A ContinueIntent equal to the
// agent's own intent means "I asked a clarifying question, keep routing to
// me"; IntentNone releases the workflow.
type Result struct {
	Reply          string
	ContinueIntent domain.Intent
}

// Agent is the common handling contract. The router never inspects agent
// internals; it only dispatches turns and honors ContinueIntent.
type Agent interface {
	// Intent returns the intent this agent serves.
	Intent() domain.Intent

	// Handle processes one turn. An error means the backend call failed;
	// the router degrades to its failure reply and still records the turn.
	Handle(ctx context.Context, turn Turn) (Result, error)
}

// historyWindow bounds how much session history an agent forwards to the
// backend per call.
const historyWindow = 10

// buildMessages converts session history plus the current message into
// backend messages.
func buildMessages(turn Turn) []llm.Message {
	var recent []domain.Message
	if turn.Session != nil {
		recent = turn.Session.RecentHistory(historyWindow)
	}

	msgs := make([]llm.Message, 0, len(recent)+1)
	for _, m := range recent {
		role := llm.RoleUser
		if m.Role == domain.RoleAgent {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: turn.Message})
	return msgs
}

// urlRe matches a well-formed http(s) URL.
var urlRe = regexp.MustCompile(`\bhttps?://[^\s<>"']+\.[^\s<>"']+`)

// findURL returns the first URL in s, or "".
func findURL(s string) string {
	return urlRe.FindString(s)
}
