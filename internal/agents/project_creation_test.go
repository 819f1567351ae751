package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
)

// echoSystem records the system prompt of each call and replies fixed text.
func echoSystem(prompts *[]string) *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			*prompts = append(*prompts, req.System)
			return &llm.CompletionResponse{Content: "ok"}, nil
		},
	}
}

func newProjectAgent(mock *llm.MockClient) *ProjectCreationAgent {
	log := logging.New(nil, "silent")
	b := guard.NewBreaker(guard.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: time.Minute}, log)
	caller := guard.NewCaller(mock, b, guard.CallerConfig{Timeout: time.Second, RetryBudget: 0}, log)
	return NewProjectCreationAgent(caller, "test-model", log)
}

func TestProjectCreation_ClarifiesWithoutSource(t *testing.T) {
	var prompts []string
	a := newProjectAgent(echoSystem(&prompts))

	res, err := a.Handle(context.Background(), Turn{
		Message: "I want to add my project",
		Session: &domain.ConversationSession{ID: "s1"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentProjectCreation, res.ContinueIntent, "must hold the workflow")
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "clarifying question")
}

func TestProjectCreation_ProceedsWithURLInMessage(t *testing.T) {
	var prompts []string
	a := newProjectAgent(echoSystem(&prompts))

	res, err := a.Handle(context.Background(), Turn{
		Message: "import https://github.com/maker/loom-controller please",
		Session: &domain.ConversationSession{ID: "s1"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentNone, res.ContinueIntent, "workflow complete, release routing")
	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "clarifying question")
}

func TestProjectCreation_ProceedsWithIntegration(t *testing.T) {
	var prompts []string
	a := newProjectAgent(echoSystem(&prompts))

	res, err := a.Handle(context.Background(), Turn{
		Message:     "import my repo",
		Integration: "github",
		Session:     &domain.ConversationSession{ID: "s1"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentNone, res.ContinueIntent)
}

func TestProjectCreation_ProceedsWithURLInHistory(t *testing.T) {
	var prompts []string
	a := newProjectAgent(echoSystem(&prompts))

	sess := &domain.ConversationSession{
		ID: "s1",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "look at https://youtube.com/watch?v=abc123 for my build video"},
			{Role: domain.RoleAgent, Content: "Great, what should the listing be called?", Intent: domain.IntentProjectCreation},
		},
	}

	res, err := a.Handle(context.Background(), Turn{Message: "Call it Loom Controller", Session: sess})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentNone, res.ContinueIntent)
}

func TestProjectCreation_AnswerAfterClarifyCountsAsSource(t *testing.T) {
	var prompts []string
	a := newProjectAgent(echoSystem(&prompts))

	// We already asked once; a substantive description is enough.
	sess := &domain.ConversationSession{
		ID: "s1",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "I want to add my project", Intent: domain.IntentProjectCreation},
			{Role: domain.RoleAgent, Content: "Do you have a link, or can you describe it?", Intent: domain.IntentProjectCreation},
		},
	}

	res, err := a.Handle(context.Background(), Turn{Message: "my own, built with ToolX", Session: sess})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentNone, res.ContinueIntent)
	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "clarifying question")
}

func TestProjectCreation_TrivialAnswerStillClarifies(t *testing.T) {
	var prompts []string
	a := newProjectAgent(echoSystem(&prompts))

	sess := &domain.ConversationSession{
		ID: "s1",
		Messages: []domain.Message{
			{Role: domain.RoleAgent, Content: "Do you have a link?", Intent: domain.IntentProjectCreation},
		},
	}

	res, err := a.Handle(context.Background(), Turn{Message: "yes", Session: sess})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentProjectCreation, res.ContinueIntent)
}

func TestProjectCreation_BackendErrorPropagates(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, &llm.ProviderError{Provider: "mock", Message: "down", Code: 500}
		},
	}
	a := newProjectAgent(mock)

	_, err := a.Handle(context.Background(), Turn{Message: "add my project", Session: &domain.ConversationSession{ID: "s1"}})
	assert.Error(t, err)
}
