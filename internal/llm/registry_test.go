package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftista/concierge/internal/logging"
)

func newTestRegistry() *Registry {
	return NewRegistry(logging.New(nil, "silent"))
}

func TestRegistry_ResolveByName(t *testing.T) {
	r := newTestRegistry()
	anthropic := &MockClient{ProviderName: "anthropic"}
	ollama := &MockClient{ProviderName: "ollama"}
	r.Register("anthropic", anthropic)
	r.Register("ollama", ollama)

	c, err := r.Resolve("ollama")
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Name())
}

func TestRegistry_ResolveFallsBack(t *testing.T) {
	r := newTestRegistry()
	r.Register("anthropic", &MockClient{ProviderName: "anthropic"})
	r.SetFallback("anthropic")

	c, err := r.Resolve("some-unknown-provider")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())
}

func TestRegistry_ResolveUnknownWithoutFallback(t *testing.T) {
	r := newTestRegistry()
	r.Register("anthropic", &MockClient{ProviderName: "anthropic"})

	_, err := r.Resolve("ollama")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama")
}

func TestRegistry_FallbackMustBeRegistered(t *testing.T) {
	r := newTestRegistry()
	r.SetFallback("ghost")

	_, err := r.Resolve("anything")
	assert.Error(t, err)
}

func TestRegistry_Providers(t *testing.T) {
	r := newTestRegistry()
	r.Register("anthropic", &MockClient{ProviderName: "anthropic"})
	r.Register("ollama", &MockClient{ProviderName: "ollama"})

	assert.ElementsMatch(t, []string{"anthropic", "ollama"}, r.Providers())
}

func TestProviderError_Retryable(t *testing.T) {
	cases := []struct {
		code      int
		retryable bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{529, true},
		{400, false},
		{401, false},
		{404, false},
		{0, false},
	}
	for _, tc := range cases {
		err := &ProviderError{Provider: "anthropic", Code: tc.code, Message: "x"}
		assert.Equal(t, tc.retryable, err.Retryable(), "code %d", tc.code)
	}
}

func TestProviderError_ErrorString(t *testing.T) {
	withCode := &ProviderError{Provider: "anthropic", Code: 429, Message: "rate limited"}
	assert.Equal(t, "anthropic: 429 rate limited", withCode.Error())

	noCode := &ProviderError{Provider: "ollama", Message: "connection refused"}
	assert.Equal(t, "ollama: connection refused", noCode.Error())
}
