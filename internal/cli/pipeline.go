package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/craftista/concierge/internal/agents"
	"github.com/craftista/concierge/internal/config"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/hooks"
	"github.com/craftista/concierge/internal/intent"
	"github.com/craftista/concierge/internal/llm"
	"github.com/craftista/concierge/internal/logging"
	"github.com/craftista/concierge/internal/ratelimit"
	"github.com/craftista/concierge/internal/router"
	"github.com/craftista/concierge/internal/security"
	"github.com/craftista/concierge/internal/session"
	"github.com/craftista/concierge/internal/store"
)

// pipeline bundles the wired routing stack shared by serve and chat.
type pipeline struct {
	router   *router.Router
	sessions session.Store
	breaker  *guard.Breaker
	hooks    *hooks.Manager
	db       *store.DB // nil when everything runs in memory
}

// close releases pipeline resources.
func (p *pipeline) close() {
	if p.db != nil {
		p.db.Close()
	}
}

// buildPipeline wires the full routing stack from config: backend client,
// circuit breaker, guarded caller, defensive layers, agents, and stores.
func buildPipeline(cfg config.Config, dbPath string, log *logging.Logger) (*pipeline, error) {
	registry := llm.NewRegistry(log)
	switch cfg.Backend.Provider {
	case "ollama":
		endpoint := cfg.Backend.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:11434"
		}
		registry.Register("ollama", llm.NewOllamaClient(endpoint, cfg.Backend.Model))
	default:
		registry.Register("anthropic", llm.NewAnthropicClient(cfg.Backend.APIKey, cfg.Backend.Model))
	}
	registry.SetFallback(cfg.Backend.Provider)

	client, err := registry.Resolve(cfg.Backend.Provider)
	if err != nil {
		return nil, fmt.Errorf("resolving backend provider: %w", err)
	}

	hookMgr := hooks.NewManager(log)
	for i, h := range cfg.Hooks {
		name := fmt.Sprintf("shell-%d", i)
		timeout := time.Duration(h.TimeoutSecs) * time.Second
		hookMgr.On(h.Event, name, hooks.ShellHandler(h.Command, timeout, log))
	}

	breaker := guard.NewBreaker(guard.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  time.Duration(cfg.Breaker.RecoverySecs) * time.Second,
		OnStateChange: func(from, to guard.State) {
			data := map[string]string{"from": from.String(), "to": to.String()}
			switch to {
			case guard.StateOpen:
				hookMgr.Emit(context.Background(), hooks.EventBreakerOpened, data)
			case guard.StateClosed:
				hookMgr.Emit(context.Background(), hooks.EventBreakerClosed, data)
			}
		},
	}, log)

	caller := guard.NewCaller(client, breaker, guard.CallerConfig{
		Timeout:     time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		RetryBudget: cfg.Backend.Retries,
	}, log)

	var db *store.DB
	needsDB := cfg.Session.Store == "sqlite" || cfg.RateLimit.Store == "sqlite"
	if needsDB {
		db, err = store.Open(dbPath, log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		log.Info().Str("path", dbPath).Msg("database open")
	}

	var sessions session.Store
	if cfg.Session.Store == "sqlite" {
		sessions = store.NewSQLiteSessionStore(db, cfg.Session.MaxMessages)
	} else {
		sessions = session.NewMemoryStore(cfg.Session.MaxMessages)
	}

	var rateStore ratelimit.Store
	if cfg.RateLimit.Store == "sqlite" {
		rateStore = store.NewSQLiteRateStore(db)
	} else {
		rateStore = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(rateStore, ratelimit.Config{
		Limit:  int64(cfg.RateLimit.Requests),
		Window: time.Duration(cfg.RateLimit.WindowMins) * time.Minute,
	}, log)

	filter := security.NewFilter(cfg.Security.MaxMessageLen, log)
	scanner := security.NewScanner(log)
	classifier := intent.NewClassifier(caller, cfg.Backend.Model, log)
	agentReg := agents.NewRegistry(caller, cfg.Backend.Model, log)

	rt := router.New(limiter, filter, scanner, classifier, agentReg, sessions, breaker, hookMgr, log)

	return &pipeline{
		router:   rt,
		sessions: sessions,
		breaker:  breaker,
		hooks:    hookMgr,
		db:       db,
	}, nil
}
