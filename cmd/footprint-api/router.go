package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/footprint/cmd/footprint-api/handlers"
	"github.com/spherical-ai/footprint/cmd/footprint-api/middleware"
	"github.com/spherical-ai/footprint/internal/observability"
)

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// NewRouter creates the API router.
func NewRouter(logger *observability.Logger, searcher handlers.Searcher, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	searchHandler := handlers.NewSearchHandler(logger, searcher)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Post("/search", searchHandler.Search)
	})

	return r
}
