// Package intent maps user messages to the closed intent set.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
)

// historyTurns is how many recent messages give the backend context.
const historyTurns = 3

// integrationIntents maps known integration contexts to a forced intent.
// When the caller names one of these, the signal is unambiguous and the
// classifier backend is never consulted.
var integrationIntents = map[string]domain.Intent{
	"github":  domain.IntentProjectCreation,
	"gitlab":  domain.IntentProjectCreation,
	"youtube": domain.IntentProjectCreation,
	"figma":   domain.IntentProjectCreation,
	"behance": domain.IntentProjectCreation,
}

// ForIntegration returns the forced intent for an integration type, if any.
func ForIntegration(integrationType string) (domain.Intent, bool) {
	it, ok := integrationIntents[strings.ToLower(strings.TrimSpace(integrationType))]
	return it, ok
}

const classifierSystemPrompt = `You are an intent classifier for a creator marketplace assistant.
Given the user's message and recent conversation, respond with exactly one label from this list and nothing else:

discovery - finding, browsing, or recommending projects, creators, or products
project-creation - creating, importing, or publishing a project or portfolio piece
image-generation - generating, editing, or requesting images or artwork
support - account, billing, bug, or general help questions
learning - tutorials, guides, or how-to questions about the craft itself

Respond with only the label.`

// Classifier resolves a message to an intent via the guarded backend call,
// with rule-based and fallback paths so an intent is always produced.
type Classifier struct {
	caller *guard.Caller
	model  string
	log    *logging.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(caller *guard.Caller, model string, log *logging.Logger) *Classifier {
	return &Classifier{caller: caller, model: model, log: log.Sub("intent")}
}

// Classify maps (message, recent history) to an intent. Never fails: a
// backend error or out-of-set label falls through to keyword rules and
// finally to the fallback intent.
func (c *Classifier) Classify(ctx context.Context, message string, history []domain.Message) domain.Intent {
	req := llm.CompletionRequest{
		Model:     c.model,
		System:    classifierSystemPrompt,
		Messages:  buildClassifierMessages(message, history),
		MaxTokens: 16,
	}

	resp, err := c.caller.Complete(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Msg("classifier backend call failed, using rules")
		return ruleClassify(message)
	}

	if it, ok := domain.ParseIntent(resp.Content); ok {
		c.log.Debug().Str("intent", it.String()).Msg("classified")
		return it
	}

	c.log.Warn().Str("label", firstLine(resp.Content)).Msg("label outside intent set, using rules")
	return ruleClassify(message)
}

func buildClassifierMessages(message string, history []domain.Message) []llm.Message {
	recent := history
	if len(recent) > historyTurns*2 {
		recent = recent[len(recent)-historyTurns*2:]
	}

	msgs := make([]llm.Message, 0, len(recent)+1)
	for _, m := range recent {
		role := llm.RoleUser
		if m.Role == domain.RoleAgent {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Classify this message: %s", message),
	})
	return msgs
}

// ruleClassify is the no-backend path. Only unambiguous keyword families
// map to a non-fallback intent; everything else is support, so the router
// always has somewhere safe to send the turn.
func ruleClassify(message string) domain.Intent {
	m := strings.ToLower(message)

	switch {
	case containsAny(m, "generate an image", "generate image", "draw me", "create an image", "make an image", "create artwork"):
		return domain.IntentImageGeneration
	case containsAny(m, "import my project", "create a project", "publish my", "upload my project", "add my project"):
		return domain.IntentProjectCreation
	case containsAny(m, "find me", "recommend", "browse", "looking for", "show me projects", "discover"):
		return domain.IntentDiscovery
	case containsAny(m, "how do i learn", "tutorial", "teach me", "how to make"):
		return domain.IntentLearning
	}
	return domain.FallbackIntent
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
