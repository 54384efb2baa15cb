// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for campaignd.
package config

import (
	"time"

	"github.com/hivelabs/campaignd/internal/agent"
	"github.com/hivelabs/campaignd/internal/provider/anthropic"
	"github.com/hivelabs/campaignd/internal/security"
)

// Config is the top-level configuration structure.
type Config struct {
	Server ServerConfig `yaml:"server"`

	// Provider configures the agent's reasoning model.
	Provider anthropic.Config `yaml:"provider"`

	// Copywriter configures the model behind generate_campaign_copy.
	// When empty, it inherits the provider's credentials.
	Copywriter anthropic.Config `yaml:"copywriter"`

	Agent     AgentConfig     `yaml:"agent"`
	CRM       CRMConfig       `yaml:"crm"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP gateway settings.
type ServerConfig struct {
	Host           string                   `yaml:"host"`
	Port           int                      `yaml:"port"`
	AllowedOrigins []string                 `yaml:"allowed_origins"`
	RateLimit      security.RateLimitConfig `yaml:"rate_limit"`
}

// AgentConfig holds the reasoning loop settings. Timeout is a Go duration
// string (e.g. "5m").
type AgentConfig struct {
	MaxTurns      int    `yaml:"max_turns"`
	TokenBudget   int    `yaml:"token_budget"`
	Timeout       string `yaml:"timeout"`
	LoopThreshold int    `yaml:"loop_threshold"`
}

// LoopConfig converts the agent section into the loop's config. An empty
// or invalid timeout falls back to the loop default.
func (c AgentConfig) LoopConfig() agent.LoopConfig {
	var timeout time.Duration
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			timeout = d
		}
	}
	return agent.LoopConfig{
		MaxTurns:      c.MaxTurns,
		TokenBudget:   c.TokenBudget,
		Timeout:       timeout,
		LoopThreshold: c.LoopThreshold,
	}
}

// CRMConfig locates the CRM database.
type CRMConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig holds the campaign dispatcher settings.
type SchedulerConfig struct {
	// DispatchSchedule is a five-field cron expression. Empty means every
	// minute.
	DispatchSchedule string `yaml:"dispatch_schedule"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

const (
	defaultHost    = "0.0.0.0"
	defaultPort    = 8000
	defaultCRMPath = "data/campaignd.db"
)

// withDefaults returns a copy with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.CRM.Path == "" {
		c.CRM.Path = defaultCRMPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	return c
}
