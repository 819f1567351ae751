package guard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
)

// CallerConfig configures the guarded backend caller.
type CallerConfig struct {
	// Timeout is the hard per-call deadline. Defaults to 20s. This is
	// distinct from the breaker's failure counting; a slow call is cut
	// off so it cannot exhaust request-handling resources.
	Timeout time.Duration

	// RetryBudget is the number of extra attempts after the first, spent
	// only on retryable provider errors. Defaults to 1.
	RetryBudget int
}

// Caller is the single guarded-call abstraction used by both the intent
// classifier and every agent. Call sites never talk to the backend client
// directly, so timeout, retry, and circuit behavior stay uniform.
type Caller struct {
	client  llm.Client
	breaker *Breaker
	timeout time.Duration
	retries int
	log     *logging.Logger
}

// NewCaller creates a guarded caller around a backend client.
func NewCaller(client llm.Client, breaker *Breaker, cfg CallerConfig, log *logging.Logger) *Caller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RetryBudget < 0 {
		cfg.RetryBudget = 0
	} else if cfg.RetryBudget == 0 {
		cfg.RetryBudget = 1
	}
	return &Caller{
		client:  client,
		breaker: breaker,
		timeout: cfg.Timeout,
		retries: cfg.RetryBudget,
		log:     log.Sub("guard"),
	}
}

// Complete performs a guarded backend completion: breaker admission, hard
// timeout, and at most one retry on a retryable provider error. Every failed
// attempt counts as a breaker failure.
func (c *Caller) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var resp *llm.CompletionResponse
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			r, callErr := c.client.Complete(callCtx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil || !isRetryable(err) {
			return nil, err
		}
		c.log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("provider", c.client.Name()).
			Msg("retryable backend error")
	}
	return nil, lastErr
}

// Breaker exposes the underlying breaker for state reporting.
func (c *Caller) Breaker() *Breaker { return c.breaker }

// isRetryable checks if the error suggests the same request could succeed
// on a fresh attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable()
	}

	msg := err.Error()
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "timeout")
}
