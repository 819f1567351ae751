// Package ratelimit enforces a per-user request budget over a fixed time
// window with lazy reset.
package ratelimit

import (
	"context"
	"time"

	"github.com/craftista/concierge/internal/logging"
)

// Config configures a Limiter.
type Config struct {
	// Limit is the maximum number of requests per window. Defaults to 50.
	Limit int64

	// Window is the counting window. Defaults to 1 hour. Reset is lazy:
	// the window boundary is computed from elapsed time, never a timer.
	Window time.Duration
}

// Limiter tracks per-user request counts. It is safe for concurrent use;
// atomicity of increment-and-check is delegated to the Store.
//
// Failure policy: if the counter store errors, the limiter fails open and
// logs. A broken counter store must not take chat down with it.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	now    func() time.Time
	log    *logging.Logger
}

// New creates a rate limiter over the given counter store.
func New(store Store, cfg Config, log *logging.Logger) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	return &Limiter{
		store:  store,
		limit:  cfg.Limit,
		window: cfg.Window,
		now:    time.Now,
		log:    log.Sub("ratelimit"),
	}
}

// Allow records a request for userKey and reports whether it is within the
// window budget. The count is monotonically non-decreasing within a window
// and resets atomically when the window elapses.
func (l *Limiter) Allow(ctx context.Context, userKey string) bool {
	windowStart := l.now().Truncate(l.window)

	count, err := l.store.Incr(ctx, userKey, windowStart)
	if err != nil {
		l.log.Warn().
			Err(err).
			Str("userKey", userKey).
			Msg("counter store unavailable, failing open")
		return true
	}

	if count > l.limit {
		l.log.Info().
			Str("userKey", userKey).
			Int64("count", count).
			Int64("limit", l.limit).
			Msg("rate limit exceeded")
		return false
	}
	return true
}

// Limit returns the configured per-window budget.
func (l *Limiter) Limit() int64 { return l.limit }

// Window returns the configured window size.
func (l *Limiter) Window() time.Duration { return l.window }
