// Package main provides the footprint API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spherical-ai/footprint/internal/cache"
	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/engine"
	"github.com/spherical-ai/footprint/internal/observability"
	"github.com/spherical-ai/footprint/internal/provider"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	backends, err := provider.Build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build search backends")
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	responseCache, err := cache.Open(cfg.Cache)
	if err != nil {
		// The cache is optional; serve uncached rather than refuse to start.
		logger.Warn().Err(err).Str("driver", cfg.Cache.Driver).Msg("Response cache unavailable")
	} else if responseCache != nil {
		defer responseCache.Close()
		opts = append(opts, engine.WithCache(responseCache, cfg.Cache.TTL))
	}

	eng := engine.NewFromConfig(cfg, backends, opts...)

	logger.Info().
		Str("addr", cfg.Addr()).
		Strs("backends", provider.Names(backends)).
		Int("workers", cfg.Search.Workers).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting footprint API")

	router := NewRouter(logger, eng, RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
