package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catturtle123/discord-github-issue-bot/cmd/mainconfig"
	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/internal/api/router"
	"github.com/catturtle123/discord-github-issue-bot/internal/archive"
	appconfig "github.com/catturtle123/discord-github-issue-bot/internal/config"
	"github.com/catturtle123/discord-github-issue-bot/internal/conversation"
	"github.com/catturtle123/discord-github-issue-bot/internal/http/handlers"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting issue agent API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_backend", cfg.SessionBackend,
	)

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

	svc, err := mainconfig.BuildService(context.Background(), cfg, logger, metrics, svcOpts...)
	if err != nil {
		logger.Error("failed to build conversation service", "error", err)
		os.Exit(1)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: handlers.NewConversationHandler(svc, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
