package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/craftista/concierge/internal/logging"
)

func newTestManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManager_EmitReachesHandlers(t *testing.T) {
	m := newTestManager()

	var got Payload
	m.On(EventInputBlocked, "audit", func(ctx context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventInputBlocked, map[string]string{"family": "role-hijack"})

	assert.Equal(t, EventInputBlocked, got.Event)
	assert.Equal(t, "role-hijack", got.Data["family"])
}

func TestManager_EmitWithNoHandlersIsNoop(t *testing.T) {
	m := newTestManager()
	m.Emit(context.Background(), EventBreakerOpened, nil)
}

func TestManager_MultipleHandlersAllRun(t *testing.T) {
	m := newTestManager()

	calls := 0
	m.On(EventRateLimited, "first", func(ctx context.Context, p Payload) error {
		calls++
		return errors.New("first failed")
	})
	m.On(EventRateLimited, "second", func(ctx context.Context, p Payload) error {
		calls++
		return nil
	})

	m.Emit(context.Background(), EventRateLimited, nil)

	// A failing handler does not stop later ones.
	assert.Equal(t, 2, calls)
}

func TestManager_Off(t *testing.T) {
	m := newTestManager()

	calls := 0
	m.On(EventOutputFlagged, "audit", func(ctx context.Context, p Payload) error {
		calls++
		return nil
	})
	assert.Equal(t, 1, m.Count(EventOutputFlagged))

	m.Off(EventOutputFlagged, "audit")
	assert.Equal(t, 0, m.Count(EventOutputFlagged))

	m.Emit(context.Background(), EventOutputFlagged, nil)
	assert.Equal(t, 0, calls)
}

func TestManager_OffUnknownNameIsNoop(t *testing.T) {
	m := newTestManager()
	m.On(EventBreakerClosed, "keep", func(ctx context.Context, p Payload) error { return nil })

	m.Off(EventBreakerClosed, "other")
	assert.Equal(t, 1, m.Count(EventBreakerClosed))
}
