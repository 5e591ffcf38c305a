package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shillcollin/reportgate"
	"github.com/shillcollin/reportgate/config"
	"github.com/shillcollin/reportgate/core"
	"github.com/shillcollin/reportgate/internal/version"
	"github.com/shillcollin/reportgate/obs"
	"github.com/shillcollin/reportgate/orchestrator"
	"github.com/shillcollin/reportgate/prompts"
	"github.com/shillcollin/reportgate/retry"
)

// app holds the components shared by serve and report.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	prompts  *prompts.Registry
	orch     *orchestrator.Orchestrator
	shutdown func(context.Context) error
}

func buildApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath, os.Getenv)
	if err != nil {
		return nil, err
	}
	logger, err := obs.NewLogger(logOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	obsOpts := cfg.ObsOptions(version.Get().String())
	obsOpts.ServiceName = "reportgate"
	obsOpts.Logger = logger
	shutdown, err := obs.Init(ctx, obsOpts)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	var promptOpts []prompts.RegistryOption
	if cfg.Prompts.Dir != "" {
		promptOpts = append(promptOpts, prompts.WithOverrideDir(cfg.Prompts.Dir))
	}
	reg, err := prompts.Default(promptOpts...)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	provider := resolveProvider(cfg, logger)
	orch, err := orchestrator.New(provider,
		orchestrator.WithPrompts(reg),
		orchestrator.WithReportPolicy(cfg.ReportPolicy()),
		orchestrator.WithChatPolicy(retry.Once),
		orchestrator.WithCallTimeout(cfg.LLM.Timeout),
		orchestrator.WithContextLimit(cfg.Chat.ContextLimit),
		orchestrator.WithChatMaxTokens(cfg.Chat.MaxTokens),
		orchestrator.WithLogger(logger),
	)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, prompts: reg, orch: orch, shutdown: shutdown}, nil
}

// resolveProvider returns nil when the backend cannot be built, so the
// gateway starts in degraded mode instead of refusing to boot.
func resolveProvider(cfg config.Config, logger *slog.Logger) core.Provider {
	kind, err := cfg.Kind()
	if err != nil {
		logger.Warn("llm provider disabled", "error", err)
		return nil
	}
	provider, resolved, err := reportgate.NewProvider(kind, cfg.Overrides(), os.Getenv)
	if err != nil {
		logger.Warn("llm provider disabled", "provider", kind, "model", resolved.Model, "error", err)
		return nil
	}
	caps := provider.Capabilities()
	logger.Info("llm provider ready", "provider", caps.Provider, "model", caps.Model, "variant", caps.Variant)
	return provider
}
