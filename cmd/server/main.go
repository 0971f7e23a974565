package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/clothsearch/backend/config"
	"github.com/clothsearch/backend/internal/app"
	httpDelivery "github.com/clothsearch/backend/internal/delivery/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := app.NewLogger(cfg, os.Stdout)
	log.Info().
		Str("version", app.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Dur("global_timeout", cfg.Search.GlobalTimeout).
		Dur("per_site_timeout", cfg.Search.PerSiteTimeout).
		Int("max_concurrency", cfg.Search.MaxConcurrency).
		Msg("Starting ClothSearch backend")

	components := app.Build(cfg, log)
	defer components.Close()

	handler := httpDelivery.NewHandler(components.Search, components.Registry, app.Version)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	// A search may legitimately run for the whole global timeout
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Search.GlobalTimeout + 15*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
