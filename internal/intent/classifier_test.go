package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
)

func newTestClassifier(mock *llm.MockClient) *Classifier {
	log := logging.New(nil, "silent")
	b := guard.NewBreaker(guard.BreakerConfig{FailureThreshold: 5, RecoveryTimeout: time.Minute}, log)
	caller := guard.NewCaller(mock, b, guard.CallerConfig{Timeout: time.Second, RetryBudget: 0}, log)
	return NewClassifier(caller, "test-model", log)
}

func replyWith(label string) *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: label}, nil
		},
	}
}

func TestClassify_UsesBackendLabel(t *testing.T) {
	c := newTestClassifier(replyWith("discovery"))

	it := c.Classify(context.Background(), "find me pottery projects", nil)
	assert.Equal(t, domain.IntentDiscovery, it)
}

func TestClassify_NormalizesBackendVariants(t *testing.T) {
	tests := []struct {
		label string
		want  domain.Intent
	}{
		{"  Project_Creation  ", domain.IntentProjectCreation},
		{"image generation", domain.IntentImageGeneration},
		{"learning\n", domain.IntentLearning},
	}

	for _, tt := range tests {
		c := newTestClassifier(replyWith(tt.label))
		assert.Equal(t, tt.want, c.Classify(context.Background(), "whatever", nil))
	}
}

func TestClassify_OutOfSetLabelFallsToRules(t *testing.T) {
	c := newTestClassifier(replyWith("shopping"))

	// Rules pick up what the backend mangled.
	it := c.Classify(context.Background(), "generate an image of a loom", nil)
	assert.Equal(t, domain.IntentImageGeneration, it)
}

func TestClassify_BackendErrorFallsToRules(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("backend down")
		},
	}
	c := newTestClassifier(mock)

	it := c.Classify(context.Background(), "I need a tutorial on glazing", nil)
	assert.Equal(t, domain.IntentLearning, it)
}

func TestClassify_NeverFails(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("backend down")
		},
	}
	c := newTestClassifier(mock)

	// Nothing matches any rule family; the fallback still routes it.
	it := c.Classify(context.Background(), "xyzzy", nil)
	assert.Equal(t, domain.FallbackIntent, it)
}

func TestClassify_SendsRecentHistoryOnly(t *testing.T) {
	var sent []llm.Message
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			sent = req.Messages
			return &llm.CompletionResponse{Content: "support"}, nil
		},
	}
	c := newTestClassifier(mock)

	history := make([]domain.Message, 10)
	for i := range history {
		history[i] = domain.Message{Role: domain.RoleUser, Content: "older"}
	}
	c.Classify(context.Background(), "latest question", history)

	// At most three turns of context plus the message under
	// classification.
	assert.Len(t, sent, historyTurns*2+1)
	assert.Contains(t, sent[len(sent)-1].Content, "latest question")
}

func TestRuleClassify(t *testing.T) {
	tests := []struct {
		message string
		want    domain.Intent
	}{
		{"please generate an image of a sunset mural", domain.IntentImageGeneration},
		{"I want to import my project from a repo", domain.IntentProjectCreation},
		{"recommend something with textiles", domain.IntentDiscovery},
		{"show me a tutorial on dovetail joints", domain.IntentLearning},
		{"my payout is late", domain.IntentSupport},
		{"hello", domain.IntentSupport},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ruleClassify(tt.message), "message %q", tt.message)
	}
}

func TestForIntegration(t *testing.T) {
	for _, integ := range []string{"github", "gitlab", "youtube", "figma", "behance", "GitHub", " github "} {
		it, ok := ForIntegration(integ)
		assert.True(t, ok, "%s", integ)
		assert.Equal(t, domain.IntentProjectCreation, it)
	}

	_, ok := ForIntegration("myspace")
	assert.False(t, ok)
	_, ok = ForIntegration("")
	assert.False(t, ok)
}
