package router

import (
	"regexp"
	"strings"

	"github.com/craftista/concierge/internal/domain"
)

// Continuation override policy.
//
// When a session has an active agent, the next message goes back to that
// agent by default. The override below deliberately errs toward staying:
// the known failure mode it defends against is a short answer to a
// clarifying question ("my own, made with ToolX") being re-classified to a
// different agent because of a stray keyword. Only a clearly fresh,
// self-contained request breaks the workflow.

// switchPhrases are explicit topic-switch signals. Matched as prefixes of
// the (lowercased, trimmed) message so a passing mention mid-sentence does
// not count.
var switchPhrases = []string{
	"never mind",
	"nevermind",
	"forget that",
	"forget it",
	"new topic",
	"different question",
	"change of subject",
	"let's talk about something else",
	"actually, i want to",
	"actually i want to",
	"instead, i want",
	"instead i want",
}

var overrideURLRe = regexp.MustCompile(`\bhttps?://[^\s<>"']+\.[^\s<>"']+`)

// shouldOverride decides whether a message abandons the active workflow.
func shouldOverride(message string, sess *domain.ConversationSession) bool {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	// Short answers are exactly what continuation exists to protect.
	if len(strings.Fields(trimmed)) < 4 && overrideURLRe.FindString(trimmed) == "" {
		return false
	}

	for _, phrase := range switchPhrases {
		if strings.HasPrefix(lower, phrase) {
			return true
		}
	}

	// A new well-formed URL the conversation has not seen reads as a
	// fresh request, not an answer.
	if url := overrideURLRe.FindString(trimmed); url != "" {
		if sess == nil {
			return true
		}
		for _, m := range sess.Messages {
			if strings.Contains(m.Content, url) {
				return false
			}
		}
		return true
	}

	return false
}
