// Package llm defines the language-model backend contract and its providers.
//
// The rest of the system treats the backend as an opaque request/response
// call: a CompletionRequest goes in, a CompletionResponse or an error comes
// out. Timeouts, retries, and failure isolation live in the guard package,
// not here.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Role constants for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single turn in a conversation as seen by the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a Complete call.
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"maxTokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// CompletionResponse is the result of a completion.
type CompletionResponse struct {
	Content    string        `json:"content"`
	StopReason string        `json:"stopReason,omitempty"`
	Usage      Usage         `json:"usage"`
	Model      string        `json:"model,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Client is the interface all backend providers implement.
type Client interface {
	// Complete sends a request and returns the full response. The call
	// must honor ctx cancellation and deadlines.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "anthropic", "ollama").
	Name() string
}

// ProviderError is returned when a backend provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Retryable reports whether the error suggests the same request could
// succeed on a later attempt (throttling, overload, transient 5xx).
func (e *ProviderError) Retryable() bool {
	switch e.Code {
	case 429, 500, 502, 503, 529:
		return true
	}
	return false
}
