package config

// Config is the root configuration for the Concierge service.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Backend   BackendConfig   `yaml:"backend,omitempty"`
	Breaker   BreakerConfig   `yaml:"breaker,omitempty"`
	RateLimit RateLimitConfig `yaml:"rateLimit,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
	Security  SecurityConfig  `yaml:"security,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Hooks     []HookConfig    `yaml:"hooks,omitempty"`
}

// HookConfig binds a shell command to a pipeline audit event. The command
// receives the event payload as JSON on stdin.
type HookConfig struct {
	Event       string `yaml:"event"`
	Command     string `yaml:"command"`
	TimeoutSecs int    `yaml:"timeoutSecs,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket server.
type ServerConfig struct {
	Port int        `yaml:"port,omitempty"`
	Bind string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	Host string     `yaml:"host,omitempty"` // used when bind: custom
	Auth ServerAuth `yaml:"auth,omitempty"`
}

// ServerAuth configures server authentication.
type ServerAuth struct {
	Mode  string `yaml:"mode,omitempty"` // "token" | "none"
	Token string `yaml:"token,omitempty"`
}

// BackendConfig selects and configures the model backend.
type BackendConfig struct {
	Provider    string  `yaml:"provider,omitempty"` // "anthropic" | "ollama"
	APIKey      string  `yaml:"apiKey,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Endpoint    string  `yaml:"endpoint,omitempty"` // custom endpoint (for ollama)
	TimeoutSecs int     `yaml:"timeoutSecs,omitempty"`
	Retries     int     `yaml:"retries,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// BreakerConfig tunes the circuit breaker wrapping backend calls.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failureThreshold,omitempty"`
	RecoverySecs     int `yaml:"recoverySecs,omitempty"`
}

// RateLimitConfig tunes the per-user request budget.
type RateLimitConfig struct {
	Requests   int    `yaml:"requests,omitempty"`
	WindowMins int    `yaml:"windowMins,omitempty"`
	Store      string `yaml:"store,omitempty"` // "memory" | "sqlite"
}

// SessionConfig defines session behavior.
type SessionConfig struct {
	IdleMinutes int    `yaml:"idleMinutes,omitempty"`
	MaxMessages int    `yaml:"maxMessages,omitempty"`
	Store       string `yaml:"store,omitempty"` // "memory" | "sqlite"
}

// SecurityConfig tunes the input filter.
type SecurityConfig struct {
	MaxMessageLen int `yaml:"maxMessageLen,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`
}
