package agents

import (
	"context"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
)

// promptAgent is the shared shape for single-turn agents: one system
// prompt, one guarded backend call, no workflow state.
type promptAgent struct {
	intent    domain.Intent
	system    string
	maxTokens int
	caller    *guard.Caller
	model     string
	log       *logging.Logger
}

func (a *promptAgent) Intent() domain.Intent { return a.intent }

func (a *promptAgent) Handle(ctx context.Context, turn Turn) (Result, error) {
	resp, err := a.caller.Complete(ctx, llm.CompletionRequest{
		Model:     a.model,
		System:    a.system,
		Messages:  buildMessages(turn),
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Reply: resp.Content}, nil
}

const discoveryPrompt = `You are the discovery assistant for a creator marketplace.
Help the user find projects, creators, and products. Suggest search directions and categories; keep answers short and concrete.`

// NewDiscoveryAgent creates the discovery agent.
func NewDiscoveryAgent(caller *guard.Caller, model string, log *logging.Logger) Agent {
	return &promptAgent{
		intent:    domain.IntentDiscovery,
		system:    discoveryPrompt,
		maxTokens: 1024,
		caller:    caller,
		model:     model,
		log:       log.Sub("agent.discovery"),
	}
}

const imageGenerationPrompt = `You are the image assistant for a creator marketplace.
Help the user describe the artwork they want generated: subject, style, composition, and constraints. Produce a refined generation prompt, not the image itself.`

// NewImageGenerationAgent creates the image-generation agent.
func NewImageGenerationAgent(caller *guard.Caller, model string, log *logging.Logger) Agent {
	return &promptAgent{
		intent:    domain.IntentImageGeneration,
		system:    imageGenerationPrompt,
		maxTokens: 768,
		caller:    caller,
		model:     model,
		log:       log.Sub("agent.images"),
	}
}

const supportPrompt = `You are the support assistant for a creator marketplace.
Answer account, billing, and product questions plainly. If something needs a human, say so and explain how to reach support. Never guess at account-specific data.`

// NewSupportAgent creates the support agent. It also serves as the fallback
// destination when classification is ambiguous.
func NewSupportAgent(caller *guard.Caller, model string, log *logging.Logger) Agent {
	return &promptAgent{
		intent:    domain.IntentSupport,
		system:    supportPrompt,
		maxTokens: 1024,
		caller:    caller,
		model:     model,
		log:       log.Sub("agent.support"),
	}
}

const learningPrompt = `You are the learning assistant for a creator marketplace.
Help users improve their craft: point to techniques, practice ideas, and learning paths. Encourage, but stay specific.`

// NewLearningAgent creates the learning agent.
func NewLearningAgent(caller *guard.Caller, model string, log *logging.Logger) Agent {
	return &promptAgent{
		intent:    domain.IntentLearning,
		system:    learningPrompt,
		maxTokens: 1024,
		caller:    caller,
		model:     model,
		log:       log.Sub("agent.learning"),
	}
}
