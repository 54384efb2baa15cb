package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks the structural validity of a Config. All problems are
// collected and reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q not one of debug|info|warn|error", cfg.Logging.Level))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q not one of text|json", cfg.Logging.Format))
	}

	if cfg.Agent.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Agent.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("agent.timeout %q: %w", cfg.Agent.Timeout, err))
		}
	}

	if cfg.Agent.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("agent.max_turns must not be negative"))
	}

	if cfg.Server.RateLimit.RequestsPerMin < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit.requests_per_min must not be negative"))
	}

	return errors.Join(errs...)
}
