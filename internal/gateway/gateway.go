// Package gateway exposes the campaign agent over HTTP: a streaming chat
// endpoint (SSE and WebSocket), health, and Prometheus metrics.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/hivelabs/campaignd/internal/agent"
	"github.com/hivelabs/campaignd/internal/event"
	"github.com/hivelabs/campaignd/internal/prompts"
	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/security"
)

// LoopRunner is the slice of the agent loop the gateway needs.
type LoopRunner interface {
	RunStream(ctx context.Context, req agent.Request) (<-chan agent.StreamEvent, error)
}

// FanCounter reports CRM reachability for the health endpoint.
type FanCounter interface {
	CountFans(ctx context.Context) (int, error)
}

// Gateway is the HTTP boundary of the service.
type Gateway struct {
	config  Config
	logger  *slog.Logger
	loop    LoopRunner
	limiter *security.RateLimiter
	metrics *Metrics
	fans    FanCounter
	server  *http.Server
}

// SetFanCounter attaches the CRM store to the health endpoint. Optional;
// without it /health reports status only.
func (g *Gateway) SetFanCounter(fans FanCounter) { g.fans = fans }

// Limiter exposes the rate limiter so the cron prune job can bound its
// per-client bucket map.
func (g *Gateway) Limiter() *security.RateLimiter { return g.limiter }

// New creates a Gateway serving the given loop.
func New(cfg Config, loop LoopRunner, logger *slog.Logger) *Gateway {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:  cfg,
		logger:  logger,
		loop:    loop,
		limiter: security.NewRateLimiter(cfg.RateLimit),
		metrics: NewMetrics(),
	}
}

// Start begins serving in a background goroutine.
func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:        g.config.bind(),
		Handler:     g.buildRouter(),
		ReadTimeout: g.config.ReadTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.bind())
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.bind())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

// streamEvents runs the agent loop for the given history and returns the
// projected boundary event stream.
func (g *Gateway) streamEvents(ctx context.Context, msgs []provider.LLMMessage) (<-chan event.Event, error) {
	loopCh, err := g.loop.RunStream(ctx, agent.Request{
		Messages:     msgs,
		SystemPrompt: prompts.CampaignAgent,
	})
	if err != nil {
		return nil, err
	}

	proj := event.NewProjector(g.logger)
	proj.OnUsage = func(u provider.TokenUsage) {
		g.metrics.Tokens.Add(float64(u.TotalTokens))
	}
	proj.OnToolDone = func(name string, seconds float64) {
		g.metrics.ToolDuration.WithLabelValues(name).Observe(seconds)
	}
	proj.OnFinal = func(resp *agent.Response) {
		g.metrics.LoopTurns.Observe(float64(resp.Turns))
	}
	return proj.Project(ctx, loopCh), nil
}
