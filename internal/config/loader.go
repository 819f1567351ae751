package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Backend.APIKey = expandEnvVars(cfg.Backend.APIKey)
	cfg.Server.Auth.Token = expandEnvVars(cfg.Server.Auth.Token)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			expandSensitiveFields(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8097
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Server.Auth.Mode == "" {
		cfg.Server.Auth.Mode = "none"
	}
	if cfg.Backend.Provider == "" {
		cfg.Backend.Provider = "anthropic"
	}
	if cfg.Backend.Model == "" {
		cfg.Backend.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = 20
	}
	if cfg.Backend.Retries == 0 {
		cfg.Backend.Retries = 1
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.RecoverySecs == 0 {
		cfg.Breaker.RecoverySecs = 60
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 50
	}
	if cfg.RateLimit.WindowMins == 0 {
		cfg.RateLimit.WindowMins = 60
	}
	if cfg.RateLimit.Store == "" {
		cfg.RateLimit.Store = "memory"
	}
	if cfg.Session.IdleMinutes == 0 {
		cfg.Session.IdleMinutes = 120
	}
	if cfg.Session.MaxMessages == 0 {
		cfg.Session.MaxMessages = 20
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "sqlite"
	}
	if cfg.Security.MaxMessageLen == 0 {
		cfg.Security.MaxMessageLen = 5000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads CONCIERGE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONCIERGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CONCIERGE_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("CONCIERGE_PROVIDER"); v != "" {
		cfg.Backend.Provider = v
	}
	if v := os.Getenv("CONCIERGE_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := os.Getenv("CONCIERGE_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("CONCIERGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
