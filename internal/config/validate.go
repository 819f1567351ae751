package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.host",
			Message: "required when bind: custom",
		})
	}

	validAuthModes := []string{"token", "none"}
	if cfg.Server.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Server.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "server.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validAuthModes, cfg.Server.Auth.Mode),
		})
	}
	if cfg.Server.Auth.Mode == "token" && cfg.Server.Auth.Token == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.auth.token",
			Message: "required when auth mode is token",
		})
	}

	validProviders := []string{"anthropic", "ollama"}
	if cfg.Backend.Provider != "" && !slices.Contains(validProviders, cfg.Backend.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "backend.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.Backend.Provider),
		})
	}
	if cfg.Backend.Provider == "anthropic" && cfg.Backend.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "backend.apiKey",
			Message: "required for the anthropic provider",
		})
	}
	if cfg.Backend.TimeoutSecs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "backend.timeoutSecs",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Backend.TimeoutSecs),
		})
	}

	if cfg.Breaker.FailureThreshold < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "breaker.failureThreshold",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Breaker.FailureThreshold),
		})
	}
	if cfg.Breaker.RecoverySecs < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "breaker.recoverySecs",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Breaker.RecoverySecs),
		})
	}

	if cfg.RateLimit.Requests < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "rateLimit.requests",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.RateLimit.Requests),
		})
	}
	if cfg.RateLimit.WindowMins < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "rateLimit.windowMins",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.RateLimit.WindowMins),
		})
	}

	validStores := []string{"memory", "sqlite"}
	if cfg.RateLimit.Store != "" && !slices.Contains(validStores, cfg.RateLimit.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "rateLimit.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.RateLimit.Store),
		})
	}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}

	validHookEvents := []string{"input_blocked", "output_flagged", "breaker_opened", "breaker_closed", "rate_limited"}
	for i, h := range cfg.Hooks {
		if !slices.Contains(validHookEvents, h.Event) {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("hooks[%d].event", i),
				Message: fmt.Sprintf("must be one of %v, got %q", validHookEvents, h.Event),
			})
		}
		if h.Command == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("hooks[%d].command", i),
				Message: "required",
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
