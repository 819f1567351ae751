// Package router orchestrates a chat turn through the defensive pipeline:
// validation, rate limiting, circuit fast-path, injection filtering, intent
// resolution, agent dispatch, output scanning, and session bookkeeping.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/craftista/concierge/internal/agents"
	"github.com/craftista/concierge/internal/domain"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/hooks"
	"github.com/craftista/concierge/internal/intent"
	"github.com/craftista/concierge/internal/logging"
	"github.com/craftista/concierge/internal/ratelimit"
	"github.com/craftista/concierge/internal/security"
	"github.com/craftista/concierge/internal/session"
)

// Outcome is the terminal state of a turn.
type Outcome string

const (
	// OutcomeComplete means the turn produced an agent reply.
	OutcomeComplete Outcome = "complete"
	// OutcomeRejected means a defensive layer refused the turn before or
	// instead of dispatch.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means dispatch was attempted but the backend failed;
	// the turn is still recorded so the conversation can continue.
	OutcomeFailed Outcome = "failed"
)

// User-facing replies. Specific and non-technical for every recoverable
// category; only backend failures get the generic apology. Internal error
// detail never reaches the client.
const (
	replyRateLimited = "You're sending messages a little too quickly. Please wait a bit and try again."
	replyUnavailable = "The assistant is temporarily unavailable. Please try again in a minute."
	replyRephrase    = "I couldn't process that message. Could you rephrase it?"
	replyApology     = "Sorry, something went wrong on our side. Please try again."
	replyInvalid     = "Please enter a message so I can help."
)

// Result is the router's full verdict for a turn. Response is what crosses
// the API boundary; Outcome and Err are for callers and tests.
type Result struct {
	Outcome  Outcome
	Err      error // taxonomy sentinel for rejected/failed turns
	Response domain.ChatResponse
}

// Router is the per-turn supervisor.
type Router struct {
	limiter    *ratelimit.Limiter
	filter     *security.Filter
	scanner    *security.Scanner
	classifier *intent.Classifier
	registry   *agents.Registry
	sessions   session.Store
	breaker    *guard.Breaker
	hooks      *hooks.Manager
	locks      *keyLocks
	log        *logging.Logger
}

// New creates a router. All collaborators are required except hooks, which
// may be nil when no audit handlers are configured.
func New(
	limiter *ratelimit.Limiter,
	filter *security.Filter,
	scanner *security.Scanner,
	classifier *intent.Classifier,
	registry *agents.Registry,
	sessions session.Store,
	breaker *guard.Breaker,
	hooks *hooks.Manager,
	log *logging.Logger,
) *Router {
	return &Router{
		limiter:    limiter,
		filter:     filter,
		scanner:    scanner,
		classifier: classifier,
		registry:   registry,
		sessions:   sessions,
		breaker:    breaker,
		hooks:      hooks,
		locks:      newKeyLocks(),
		log:        log.Sub("router"),
	}
}

// Handle runs one chat turn end to end.
func (r *Router) Handle(ctx context.Context, req domain.ChatRequest) Result {
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.SessionID) == "" {
		return rejected(domain.ErrInvalidRequest, domain.ChatResponse{Reply: replyInvalid, Blocked: false})
	}

	// Rate limit before any backend work. The session id doubles as the
	// per-user key at this boundary.
	if !r.limiter.Allow(ctx, req.SessionID) {
		r.emit(ctx, hooks.EventRateLimited, map[string]string{"sessionId": req.SessionID})
		return rejected(domain.ErrRateLimited, domain.ChatResponse{Reply: replyRateLimited})
	}

	// Circuit fast-path: if the backend is known-degraded, answer now
	// instead of walking the rest of the pipeline.
	if r.breaker.Tripped() {
		return rejected(domain.ErrCircuitOpen, domain.ChatResponse{Reply: replyUnavailable})
	}

	verdict := r.filter.Inspect(req.Message)
	if !verdict.Accepted {
		r.log.Info().
			Str("sessionId", req.SessionID).
			Str("family", verdict.Reason).
			Msg("message rejected by injection filter")
		r.emit(ctx, hooks.EventInputBlocked, map[string]string{
			"sessionId": req.SessionID,
			"family":    verdict.Reason,
		})
		return rejected(domain.ErrInjectionRejected, domain.ChatResponse{Reply: replyRephrase, Blocked: true})
	}

	// Everything from here mutates one session; serialize per key.
	unlock := r.locks.Lock(req.SessionID)
	defer unlock()

	sess := r.sessions.GetOrCreate(req.SessionID)
	turnIntent, continued := r.resolveIntent(ctx, req, verdict.Sanitized, sess)

	agent := r.registry.ForIntent(turnIntent)

	r.log.Info().
		Str("sessionId", req.SessionID).
		Str("intent", turnIntent.String()).
		Bool("continuation", continued).
		Int("turn", sess.TurnNumber+1).
		Msg("dispatching turn")

	res, err := agent.Handle(ctx, agents.Turn{
		Message:     verdict.Sanitized,
		Session:     sess,
		Integration: req.IntegrationType,
	})
	if err != nil {
		return r.handleDispatchError(ctx, req, verdict.Sanitized, turnIntent, err)
	}

	scan := r.scanner.Inspect(res.Reply)
	if scan.Flagged {
		r.emit(ctx, hooks.EventOutputFlagged, map[string]string{
			"sessionId": req.SessionID,
			"families":  strings.Join(scan.Families, ","),
		})
	}

	r.recordTurn(req.SessionID, verdict.Sanitized, scan.Redacted, turnIntent, res.ContinueIntent)

	return Result{
		Outcome: OutcomeComplete,
		Response: domain.ChatResponse{
			Reply:  scan.Redacted,
			Intent: turnIntent.String(),
		},
	}
}

// resolveIntent applies, in order: the integration-type override, workflow
// continuation, and finally classification.
func (r *Router) resolveIntent(ctx context.Context, req domain.ChatRequest, message string, sess *domain.ConversationSession) (domain.Intent, bool) {
	if it, ok := intent.ForIntegration(req.IntegrationType); ok {
		return it, false
	}

	if sess.ActiveIntent.Valid() && !shouldOverride(message, sess) {
		return sess.ActiveIntent, true
	}

	return r.classifier.Classify(ctx, message, sess.RecentHistory(6)), false
}

// handleDispatchError maps an agent failure to the turn outcome. Circuit
// rejections surface as "temporarily unavailable" with nothing recorded;
// real backend failures get the apology and the turn is preserved so the
// conversation can continue.
func (r *Router) handleDispatchError(ctx context.Context, req domain.ChatRequest, message string, turnIntent domain.Intent, err error) Result {
	if errors.Is(err, guard.ErrCircuitOpen) {
		return rejected(domain.ErrCircuitOpen, domain.ChatResponse{Reply: replyUnavailable})
	}
	if ctx.Err() != nil {
		// Client went away mid-turn; nothing useful to record or reply.
		return rejected(ctx.Err(), domain.ChatResponse{})
	}

	r.log.Error().
		Err(err).
		Str("sessionId", req.SessionID).
		Str("intent", turnIntent.String()).
		Msg("agent dispatch failed")

	r.recordTurn(req.SessionID, message, replyApology, turnIntent, domain.IntentNone)

	return Result{
		Outcome: OutcomeFailed,
		Err:     domain.ErrBackend,
		Response: domain.ChatResponse{
			Reply:  replyApology,
			Intent: turnIntent.String(),
		},
	}
}

// recordTurn appends the user/agent message pair and updates continuation
// state. Caller holds the session lock.
func (r *Router) recordTurn(sessionID, userMsg, reply string, turnIntent, continueIntent domain.Intent) {
	now := time.Now()
	r.sessions.Append(sessionID, domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleUser,
		Content:   userMsg,
		Intent:    turnIntent,
		Timestamp: now,
	})
	r.sessions.Append(sessionID, domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAgent,
		Content:   reply,
		Intent:    turnIntent,
		Timestamp: now,
	})
	r.sessions.SetActiveIntent(sessionID, continueIntent)
}

// emit fires a hook event when a manager is configured.
func (r *Router) emit(ctx context.Context, event string, data map[string]string) {
	if r.hooks != nil {
		r.hooks.Emit(ctx, event, data)
	}
}

func rejected(err error, resp domain.ChatResponse) Result {
	return Result{Outcome: OutcomeRejected, Err: err, Response: resp}
}
