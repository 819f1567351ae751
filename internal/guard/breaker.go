// Package guard isolates the model backend behind a circuit breaker and a
// uniform guarded-call wrapper (timeout + single retry budget).
package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/craftista/concierge/internal/logging"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// invoking the backend.
var ErrCircuitOpen = errors.New("circuit breaker open")

// State is the breaker's position in its state machine.
type State int

const (
	// StateClosed is normal operation; calls pass through.
	StateClosed State = iota
	// StateOpen fails fast until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen allows exactly one trial call through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker. Defaults to 5.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays open before allowing
	// a trial call. Defaults to 60s.
	RecoveryTimeout time.Duration

	// OnStateChange, if set, is called after every transition. Invoked
	// outside the breaker lock.
	OnStateChange func(from, to State)
}

// Breaker is a shared circuit breaker guarding the model backend. A single
// instance is shared by every request handler so that all callers stop
// hammering a failing backend together, not per-goroutine.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	trialInFlight bool

	threshold int
	recovery  time.Duration
	onChange  func(from, to State)
	now       func() time.Time
	log       *logging.Logger
}

// NewBreaker creates a circuit breaker.
func NewBreaker(cfg BreakerConfig, log *logging.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &Breaker{
		state:     StateClosed,
		threshold: cfg.FailureThreshold,
		recovery:  cfg.RecoveryTimeout,
		onChange:  cfg.OnStateChange,
		now:       time.Now,
		log:       log.Sub("breaker"),
	}
}

// State returns the current state, accounting for an elapsed recovery window
// (an Open breaker whose timeout has passed reports HalfOpen-eligible via
// the next Execute, but State still reports Open until a trial starts).
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Tripped reports whether a call made right now would be rejected without
// reaching the backend. Used by the router as a fast-path check so it can
// answer "temporarily unavailable" before running the rest of the pipeline.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		return b.now().Sub(b.openedAt) < b.recovery
	case StateHalfOpen:
		return b.trialInFlight
	}
	return false
}

// Execute runs fn under the breaker's contract.
//
// Closed: fn runs; consecutive failures up to the threshold trip the breaker.
// Open: fails fast with ErrCircuitOpen until the recovery timeout elapses,
// then admits exactly one trial (HalfOpen). HalfOpen: trial success closes
// the breaker, trial failure re-opens it.
//
// Client-initiated cancellation does not count toward failure bookkeeping:
// a user hanging up is not evidence the backend is unhealthy.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	trial, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn(ctx)
	b.record(trial, callErr, ctx)
	return callErr
}

// admit decides whether a call may proceed. Returns whether this call is a
// HalfOpen trial.
func (b *Breaker) admit() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil

	case StateOpen:
		if b.now().Sub(b.openedAt) < b.recovery {
			return false, ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return true, nil

	case StateHalfOpen:
		if b.trialInFlight {
			// Only one trial at a time.
			return false, ErrCircuitOpen
		}
		b.trialInFlight = true
		return true, nil
	}
	return false, nil
}

// record updates breaker state from a call outcome.
func (b *Breaker) record(trial bool, callErr error, ctx context.Context) {
	cancelled := isCancellation(callErr, ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false
	}

	switch {
	case callErr == nil:
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		b.failures = 0

	case cancelled:
		// No bookkeeping change. A HalfOpen trial that was cancelled
		// simply frees the trial slot for the next caller.

	default:
		if b.state == StateHalfOpen {
			b.openedAt = b.now()
			b.transition(StateOpen)
			return
		}
		b.failures++
		if b.failures >= b.threshold {
			b.openedAt = b.now()
			b.failures = 0
			b.transition(StateOpen)
		}
	}
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.log.Warn().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state change")
	if b.onChange != nil {
		go b.onChange(from, to)
	}
}

// isCancellation reports whether the error stems from the caller going away
// rather than the backend failing.
func isCancellation(err error, ctx context.Context) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	// A deadline we imposed ourselves (call timeout) is a backend failure;
	// a parent context cancelled by the client is not. If the parent is
	// done with Canceled, treat it as a hang-up.
	return ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled)
}
