package agents

import (
	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/logging"
)

// Registry holds one agent per intent and selects over the closed enum.
// There is no string-keyed lookup on the dispatch path; unknown or invalid
// intents resolve to the support agent.
type Registry struct {
	discovery Agent
	projects  Agent
	images    Agent
	support   Agent
	learning  Agent
}

// NewRegistry builds the full agent set around a shared guarded caller.
func NewRegistry(caller *guard.Caller, model string, log *logging.Logger) *Registry {
	return &Registry{
		discovery: NewDiscoveryAgent(caller, model, log),
		projects:  NewProjectCreationAgent(caller, model, log),
		images:    NewImageGenerationAgent(caller, model, log),
		support:   NewSupportAgent(caller, model, log),
		learning:  NewLearningAgent(caller, model, log),
	}
}

// ForIntent returns the agent serving the given intent.
func (r *Registry) ForIntent(it domain.Intent) Agent {
	switch it {
	case domain.IntentDiscovery:
		return r.discovery
	case domain.IntentProjectCreation:
		return r.projects
	case domain.IntentImageGeneration:
		return r.images
	case domain.IntentLearning:
		return r.learning
	case domain.IntentSupport:
		return r.support
	default:
		return r.support
	}
}
