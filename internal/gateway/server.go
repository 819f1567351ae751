package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/craftista/concierge/internal/config"
	"github.com/craftista/concierge/internal/guard"
	"github.com/craftista/concierge/internal/hooks"
	"github.com/craftista/concierge/internal/logging"
	"github.com/craftista/concierge/internal/router"
	"github.com/craftista/concierge/internal/session"
	"github.com/craftista/concierge/internal/version"
)

// Server is the concierge HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	router   *router.Router
	sessions session.Store
	breaker  *guard.Breaker
	hooks    *hooks.Manager
	log      *logging.Logger
	version  string

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// New creates a new server around a routing pipeline.
func New(cfg config.Config, rt *router.Router, sessions session.Store, breaker *guard.Breaker, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		router:   rt,
		sessions: sessions,
		breaker:  breaker,
		log:      log.Sub("gateway"),
		version:  version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser widgets connect cross-origin from the storefront.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.Host
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Str("auth", s.cfg.Server.Auth.Mode).
		Msg("server starting")

	// Evict idle sessions in the background for the lifetime of the server.
	go s.evictLoop(ctx)

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// evictLoop periodically drops sessions idle past the configured threshold.
func (s *Server) evictLoop(ctx context.Context) {
	maxIdle := time.Duration(s.cfg.Session.IdleMinutes) * time.Minute
	if maxIdle <= 0 {
		return
	}

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.EvictIdle(maxIdle); n > 0 {
				s.log.Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		}
	}
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/chat", s.requireAuth(s.handleChat))
	mux.HandleFunc("GET /v1/chat/ws", s.requireAuth(s.handleWebSocket))

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
