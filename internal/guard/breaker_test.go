package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftista/concierge/internal/logging"
)

var errBackend = errors.New("backend exploded")

func newTestBreaker(threshold int, recovery time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker(BreakerConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
	}, logging.New(nil, "silent"))

	now := time.Now()
	b.now = func() time.Time { return now }
	return b, &now
}

func failing(ctx context.Context) error { return errBackend }
func succeeding(ctx context.Context) error { return nil }

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(5, time.Minute)
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.Tripped())
}

func TestBreaker_TripsAfterThresholdFailures(t *testing.T) {
	b, _ := newTestBreaker(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		err := b.Execute(ctx, failing)
		assert.ErrorIs(t, err, errBackend)
		assert.Equal(t, StateClosed, b.State(), "still closed after %d failures", i+1)
	}

	err := b.Execute(ctx, failing)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, StateOpen, b.State())
	assert.True(t, b.Tripped())
}

func TestBreaker_OpenFailsFastWithoutCallingBackend(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, failing)
	b.Execute(ctx, failing)
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "backend must not be reached while open")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, failing)
	b.Execute(ctx, failing)
	b.Execute(ctx, succeeding)
	b.Execute(ctx, failing)
	b.Execute(ctx, failing)

	// Failures are consecutive: the success in between reset the count.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_RecoveryTrialClosesOnSuccess(t *testing.T) {
	b, now := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, failing)
	b.Execute(ctx, failing)
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(61 * time.Second)

	err := b.Execute(ctx, succeeding)
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.Tripped())
}

func TestBreaker_RecoveryTrialReopensOnFailure(t *testing.T) {
	b, now := newTestBreaker(2, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, failing)
	b.Execute(ctx, failing)
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(61 * time.Second)

	err := b.Execute(ctx, failing)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, StateOpen, b.State())

	// The re-opened window starts fresh; a call right after fails fast.
	err = b.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_SingleTrialDuringHalfOpen(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, failing)
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(61 * time.Second)

	trialStarted := make(chan struct{})
	trialRelease := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Execute(ctx, func(ctx context.Context) error {
			close(trialStarted)
			<-trialRelease
			return nil
		})
	}()

	<-trialStarted
	// While the trial is in flight, nobody else gets in.
	err := b.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, b.Tripped())

	close(trialRelease)
	wg.Wait()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CancellationDoesNotCountAsFailure(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := b.Execute(ctx, func(ctx context.Context) error {
			return context.Canceled
		})
		assert.ErrorIs(t, err, context.Canceled)
	}

	// A hang-up is not backend evidence; the breaker never trips.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OnStateChangeFires(t *testing.T) {
	var mu sync.Mutex
	var transitions []State

	done := make(chan struct{}, 4)
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		OnStateChange: func(from, to State) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
			done <- struct{}{}
		},
	}, logging.New(nil, "silent"))

	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	b.Execute(ctx, failing)
	<-done
	now = now.Add(61 * time.Second)
	b.Execute(ctx, succeeding)
	<-done // open -> half-open
	<-done // half-open -> closed

	// The two recovery transitions fire from separate goroutines, so
	// only membership is asserted, not their relative order.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StateOpen, transitions[0])
	assert.ElementsMatch(t, []State{StateHalfOpen, StateClosed}, transitions[1:])
}

func TestBreaker_TrippedFalseOnceRecoveryElapses(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	b.Execute(ctx, failing)
	assert.True(t, b.Tripped())

	*now = now.Add(61 * time.Second)
	assert.False(t, b.Tripped(), "an elapsed recovery window means a call would be admitted")
}
