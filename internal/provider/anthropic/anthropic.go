// Package anthropic implements provider.Provider against the Anthropic
// Messages API for completions and streaming.
package anthropic

import (
	"errors"
	"log/slog"
	"os"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hivelabs/campaignd/internal/provider"
)

// Interface guard.
var _ provider.Provider = (*Anthropic)(nil)

// Anthropic implements provider.Provider using the Anthropic Messages API.
type Anthropic struct {
	config Config
	client *sdkanthropic.Client
	logger *slog.Logger
}

// New builds an Anthropic provider from config. The API key is resolved
// from config first, then from the ANTHROPIC_API_KEY environment variable.
func New(cfg Config, logger *slog.Logger) (*Anthropic, error) {
	cfg.defaults()

	apiKey := cfg.APIKey
	if apiKey == "" {
		if envKey, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			apiKey = envKey
		}
	}
	if apiKey == "" {
		return nil, errors.New("anthropic: no API key configured (set api_key or ANTHROPIC_API_KEY)")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// Reasoning steps make exactly one physical call each; retries, if any,
	// are the caller's concern.
	opts = append(opts, option.WithMaxRetries(0))

	client := sdkanthropic.NewClient(opts...)

	if logger == nil {
		logger = slog.Default()
	}

	return &Anthropic{
		config: cfg,
		client: &client,
		logger: logger,
	}, nil
}

// ModelName implements provider.Provider.
func (a *Anthropic) ModelName() string {
	return a.config.Model
}
