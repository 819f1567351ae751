package agents

import (
	"context"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
)

const projectCreationPrompt = `You are the project-creation assistant for a creator marketplace.
You help creators import or set up a project listing from a source like a GitHub repo, a YouTube video, or a portfolio page.
Be concise and practical. Never invent project details the user has not given you.`

const projectClarifyPrompt = projectCreationPrompt + `
The user has not yet provided a source link or described what they are importing.
Ask one short clarifying question to get either a link to the work or a description of what they made and with which tools. Ask only the question.`

// ProjectCreationAgent drives the project-import workflow. It is the one
// agent with a multi-turn clarifying flow: until a source URL or an
// ownership description shows up, it keeps asking and signals continuation
// so short answers come back to it instead of being re-classified.
type ProjectCreationAgent struct {
	caller *guard.Caller
	model  string
	log    *logging.Logger
}

// NewProjectCreationAgent creates the project-creation agent.
func NewProjectCreationAgent(caller *guard.Caller, model string, log *logging.Logger) *ProjectCreationAgent {
	return &ProjectCreationAgent{caller: caller, model: model, log: log.Sub("agent.projects")}
}

func (a *ProjectCreationAgent) Intent() domain.Intent { return domain.IntentProjectCreation }

func (a *ProjectCreationAgent) Handle(ctx context.Context, turn Turn) (Result, error) {
	if a.hasSource(turn) {
		resp, err := a.caller.Complete(ctx, llm.CompletionRequest{
			Model:     a.model,
			System:    projectCreationPrompt,
			Messages:  buildMessages(turn),
			MaxTokens: 1024,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Reply: resp.Content}, nil
	}

	// Missing source: ask a clarifying question and keep the workflow.
	resp, err := a.caller.Complete(ctx, llm.CompletionRequest{
		Model:     a.model,
		System:    projectClarifyPrompt,
		Messages:  buildMessages(turn),
		MaxTokens: 256,
	})
	if err != nil {
		return Result{}, err
	}

	a.log.Debug().Msg("asked clarifying question, holding workflow")
	return Result{
		Reply:          resp.Content,
		ContinueIntent: domain.IntentProjectCreation,
	}, nil
}

// hasSource reports whether the user has given enough to create from: a
// URL anywhere in the conversation, an integration context, or (after we
// already asked once) any substantive answer describing the work.
func (a *ProjectCreationAgent) hasSource(turn Turn) bool {
	if turn.Integration != "" {
		return true
	}
	if findURL(turn.Message) != "" {
		return true
	}
	if turn.Session == nil {
		return false
	}
	asked := false
	for _, m := range turn.Session.Messages {
		if m.Role == domain.RoleUser && findURL(m.Content) != "" {
			return true
		}
		if m.Role == domain.RoleAgent && m.Intent == domain.IntentProjectCreation {
			asked = true
		}
	}
	// A non-trivial answer to our clarifying question counts as a
	// description of the work.
	return asked && len(turn.Message) >= 8
}
