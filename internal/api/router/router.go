// Package router assembles the HTTP surface: conversation endpoints,
// health checks, and Prometheus metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/catturtle123/discord-github-issue-bot/internal/http/handlers"
	httpmiddleware "github.com/catturtle123/discord-github-issue-bot/internal/http/middleware"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// Config holds router dependencies.
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *handlers.ConversationHandler
	MetricsHandler      http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", cfg.ConversationHandler.Start)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.ConversationHandler.Get)
			r.Delete("/", cfg.ConversationHandler.Delete)
			r.Post("/messages", cfg.ConversationHandler.Message)
		})
	})

	return r
}
