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

func newTestRegistry(mock *llm.MockClient) *Registry {
	log := logging.New(nil, "silent")
	b := guard.NewBreaker(guard.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: time.Minute}, log)
	caller := guard.NewCaller(mock, b, guard.CallerConfig{Timeout: time.Second, RetryBudget: 0}, log)
	return NewRegistry(caller, "test-model", log)
}

func TestRegistry_EveryIntentHasAnAgent(t *testing.T) {
	r := newTestRegistry(&llm.MockClient{})

	for _, it := range domain.AllIntents {
		agent := r.ForIntent(it)
		require.NotNil(t, agent, "%s", it)
		assert.Equal(t, it, agent.Intent())
	}
}

func TestRegistry_UnknownIntentFallsToSupport(t *testing.T) {
	r := newTestRegistry(&llm.MockClient{})

	assert.Equal(t, domain.IntentSupport, r.ForIntent(domain.IntentNone).Intent())
	assert.Equal(t, domain.IntentSupport, r.ForIntent(domain.Intent("shopping")).Intent())
}

func TestPromptAgent_ForwardsHistory(t *testing.T) {
	var sent llm.CompletionRequest
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			sent = req
			return &llm.CompletionResponse{Content: "reply"}, nil
		},
	}
	r := newTestRegistry(mock)

	sess := &domain.ConversationSession{
		ID: "s1",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "earlier question"},
			{Role: domain.RoleAgent, Content: "earlier answer"},
		},
	}

	res, err := r.ForIntent(domain.IntentDiscovery).Handle(context.Background(), Turn{
		Message: "current question",
		Session: sess,
	})
	require.NoError(t, err)
	assert.Equal(t, "reply", res.Reply)
	assert.Equal(t, domain.IntentNone, res.ContinueIntent)

	require.Len(t, sent.Messages, 3)
	assert.Equal(t, llm.RoleUser, sent.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, sent.Messages[1].Role)
	assert.Equal(t, "current question", sent.Messages[2].Content)
	assert.NotEmpty(t, sent.System)
}

func TestPromptAgent_HistoryWindowBounded(t *testing.T) {
	var sent llm.CompletionRequest
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			sent = req
			return &llm.CompletionResponse{Content: "ok"}, nil
		},
	}
	r := newTestRegistry(mock)

	sess := &domain.ConversationSession{ID: "s1"}
	for i := 0; i < 30; i++ {
		sess.Messages = append(sess.Messages, domain.Message{Role: domain.RoleUser, Content: "old"})
	}

	_, err := r.ForIntent(domain.IntentSupport).Handle(context.Background(), Turn{Message: "new", Session: sess})
	require.NoError(t, err)
	assert.Len(t, sent.Messages, historyWindow+1)
}
