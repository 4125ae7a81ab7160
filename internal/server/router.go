// Package server assembles the HTTP routes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cloo-solutions/admitbot/internal/api"
	"github.com/cloo-solutions/admitbot/internal/api/handlers"
	"github.com/cloo-solutions/admitbot/internal/api/middleware"
	"github.com/cloo-solutions/admitbot/internal/metrics"
)

const maxBodyBytes int64 = 1 << 20

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	ChatHandler       *handlers.ChatHandler
	FileHandler       *handlers.FileHandler
	SuggestionHandler *handlers.SuggestionHandler

	// AdminAuth guards the file routes. Without it they are not mounted.
	AdminAuth middleware.TokenValidator

	Health   HealthChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Sentry)
	r.Use(middleware.AccessLog(cfg.Logger, cfg.Metrics))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", healthHandler(cfg.Health))
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/chat", func(r chi.Router) {
		r.Post("/", cfg.ChatHandler.Chat)
		r.Get("/{room_id}", cfg.ChatHandler.History)
		r.Delete("/{room_id}", cfg.ChatHandler.DeleteRoom)
	})

	r.Get("/suggestions", cfg.SuggestionHandler.List)

	if cfg.AdminAuth != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(cfg.AdminAuth))

			r.Route("/files", func(r chi.Router) {
				r.Post("/", cfg.FileHandler.Ingest)
				r.Get("/", cfg.FileHandler.List)
				r.Delete("/{public_id}", cfg.FileHandler.Delete)
			})
		})
	}

	return r
}

func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				api.Success(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
