package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catturtle123/discord-github-issue-bot/cmd/mainconfig"
	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/internal/archive"
	"github.com/catturtle123/discord-github-issue-bot/internal/bot"
	appconfig "github.com/catturtle123/discord-github-issue-bot/internal/config"
	"github.com/catturtle123/discord-github-issue-bot/internal/conversation"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting issue agent discord bot",
		"env", cfg.Env,
		"session_backend", cfg.SessionBackend,
		"issue_channel", cfg.DiscordIssueChannelID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := agent.NewMetrics(registry)

	var svcOpts []conversation.Option
	if cfg.ArchivePath != "" {
		arch, err := archive.Open(cfg.ArchivePath, logger)
		if err != nil {
			logger.Error("failed to open archive", "path", cfg.ArchivePath, "error", err)
			os.Exit(1)
		}
		defer arch.Close()
		svcOpts = append(svcOpts, conversation.WithArchiver(arch))
	}

	svc, err := mainconfig.BuildService(ctx, cfg, logger, metrics, svcOpts...)
	if err != nil {
		logger.Error("failed to build conversation service", "error", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg.DiscordBotToken, cfg.DiscordIssueChannelID, svc, cfg.ReplyDelay, logger)
	if err != nil {
		logger.Error("failed to build discord bot", "error", err)
		os.Exit(1)
	}

	// Metrics and liveness stay reachable while the gateway runs.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	go func() {
		if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	if err := b.Run(ctx); err != nil {
		logger.Error("discord bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("discord bot stopped")
}
