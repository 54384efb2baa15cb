// Package main is the entry point for the campaignd server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hivelabs/campaignd/internal/agent"
	"github.com/hivelabs/campaignd/internal/config"
	"github.com/hivelabs/campaignd/internal/crm"
	"github.com/hivelabs/campaignd/internal/gateway"
	"github.com/hivelabs/campaignd/internal/provider"
	"github.com/hivelabs/campaignd/internal/provider/anthropic"
	"github.com/hivelabs/campaignd/internal/scheduler"
	"github.com/hivelabs/campaignd/internal/tool"
	"github.com/hivelabs/campaignd/internal/tools"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "campaignd",
		Short:         "Conversational campaign agent for fan engagement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), serveCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("campaignd %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the campaign agent server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			// Missing .env is fine; environment may already be set.
			_ = godotenv.Load()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			logger, err := buildLogger(cfg.Logging)
			if err != nil {
				return err
			}

			return run(cfg, logger)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Configuration OK (listening on %s:%d)\n", cfg.Server.Host, cfg.Server.Port)
			return nil
		},
	})
	return cmd
}

func run(cfg *config.Config, logger *slog.Logger) error {
	crmStore, db, err := crm.Open(cfg.CRM.Path)
	if err != nil {
		return fmt.Errorf("open crm store: %w", err)
	}
	defer db.Close()

	campaigns, err := scheduler.NewStore(db)
	if err != nil {
		return fmt.Errorf("open campaign store: %w", err)
	}

	primary, err := anthropic.New(cfg.Provider,
		logger.With("role", string(provider.RolePrimary)))
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	// The copywriter inherits the primary credentials unless overridden.
	writerCfg := cfg.Copywriter
	if writerCfg.APIKey == "" {
		writerCfg.APIKey = cfg.Provider.APIKey
	}
	if writerCfg.BaseURL == "" {
		writerCfg.BaseURL = cfg.Provider.BaseURL
	}
	writer, err := anthropic.New(writerCfg,
		logger.With("role", string(provider.RoleCopywriter)))
	if err != nil {
		return fmt.Errorf("copywriter provider: %w", err)
	}

	registry := tool.NewRegistry()
	for _, t := range []tool.Tool{
		tools.NewAudienceTool(crmStore),
		tools.NewCopyTool(writer),
		tools.NewScheduleTool(campaigns),
	} {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("register tool: %w", err)
		}
	}

	loop := agent.NewLoop(primary, registry, cfg.Agent.LoopConfig())

	gw := gateway.New(gateway.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
	}, loop, logger)
	gw.SetFanCounter(crmStore)

	sched := scheduler.NewScheduler(logger)
	if err := sched.RegisterJob(&scheduler.DispatchJob{
		Store:        campaigns,
		Logger:       logger,
		ScheduleExpr: cfg.Scheduler.DispatchSchedule,
	}); err != nil {
		return err
	}
	if err := sched.RegisterJob(&scheduler.RateLimitPruneJob{
		Limiter: gw.Limiter(),
		Logger:  logger,
	}); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}

	if err := gw.Start(); err != nil {
		return err
	}

	logger.Info("campaignd started",
		"version", version,
		"model", primary.ModelName(),
		"tools", registry.Names(),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := gw.Stop(shutdownCtx); err != nil {
		logger.Error("gateway shutdown error", "error", err)
	}
	return sched.Stop(shutdownCtx)
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logging level %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/campaignd/campaignd.yaml → ./campaignd.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "campaignd", "campaignd.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "campaignd", "campaignd.yaml"))
	}

	candidates = append(candidates, "campaignd.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
