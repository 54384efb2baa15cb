package gateway

import (
	"fmt"
	"time"

	"github.com/hivelabs/campaignd/internal/security"
)

// Config holds the HTTP gateway settings.
type Config struct {
	Host           string                   `yaml:"host"`
	Port           int                      `yaml:"port"`
	AllowedOrigins []string                 `yaml:"allowed_origins"`
	RateLimit      security.RateLimitConfig `yaml:"rate_limit"`

	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout stays zero: a deadline would sever long-lived SSE and
	// WebSocket streams mid-request.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// defaults fills zero fields in place.
func (c *Config) defaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// bind returns the listen address.
func (c *Config) bind() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
