package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8097,
			Bind: "loopback",
			Auth: ServerAuth{
				Mode: "none",
			},
		},
		Backend: BackendConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-20250514",
			TimeoutSecs: 20,
			Retries:     1,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			RecoverySecs:     60,
		},
		RateLimit: RateLimitConfig{
			Requests:   50,
			WindowMins: 60,
			Store:      "memory",
		},
		Session: SessionConfig{
			IdleMinutes: 120,
			MaxMessages: 20,
			Store:       "sqlite",
		},
		Security: SecurityConfig{
			MaxMessageLen: 5000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
