package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurpe/eforms/internal/app"
	"github.com/nurpe/eforms/internal/config"
	httphandler "github.com/nurpe/eforms/internal/http"
	"github.com/nurpe/eforms/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Environment, cfg.LogLevel)

	if err := app.EnsureUploadDir(cfg.Upload.Dir); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare uploads")
	}

	deps, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init service")
	}
	defer deps.Close()

	handler := httphandler.NewHandler(deps.Forms, httphandler.HandlerOptions{
		UploadDir: cfg.Upload.Dir,
		MaxBytes:  cfg.Upload.MaxBytes,
	}, logger.WithComponent(log, "http"))
	router := httphandler.NewRouter(handler, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("starting forms service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
