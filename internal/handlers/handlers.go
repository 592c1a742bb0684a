// Package handlers exposes the operational HTTP surface: health, metrics,
// read-only user stats and medals lookups, and the medal definition reload
// hook. Score processing never flows through HTTP; the queue is the only
// write path.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/beatpulse/score-statistics/internal/medals"
)

type Handler struct {
	stats  StatsReader
	engine *medals.Engine
	logger *zap.SugaredLogger
}

func New(stats StatsReader, engine *medals.Engine, logger *zap.SugaredLogger) *Handler {
	return &Handler{stats: stats, engine: engine, logger: logger}
}

// Router builds the chi router for the ops server.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/users/{id}/stats", h.UserStats)
		r.Get("/users/{id}/medals", h.UserMedals)
		r.Post("/system/reload-medals", h.ReloadMedals)
	})

	return r
}
