package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fleets-server/internal/clock"
	"fleets-server/internal/game"
	"fleets-server/internal/middleware"
	"fleets-server/internal/realtime"
	"fleets-server/internal/rules"
	"fleets-server/internal/rules/tuning"
	"fleets-server/internal/server"
	"fleets-server/internal/shared/config"
	"fleets-server/internal/shared/logger"
	"fleets-server/internal/storage"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rulesTuning, err := tuning.Load(cfg.Game.TuningPath)
	if err != nil {
		return fmt.Errorf("failed to load tuning: %w", err)
	}
	log.Info("Rules tuning loaded",
		"path", cfg.Game.TuningPath,
		"block_duration", rulesTuning.BlockDuration(),
		"initial_building_level", rulesTuning.InitialBuildingLevel,
	)

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close store", "error", err)
		}
	}()
	log.Info("World store ready", "backend", cfg.Store.Backend)

	hub := realtime.NewHub(slog.Default())
	defer hub.Close()

	gameService := game.NewService(store, rules.NewEngine(rulesTuning), clock.System{}, hub, slog.Default())
	if err := gameService.Seed(ctx); err != nil {
		return err
	}

	routes := server.NewRoutes(gameService, hub, cfg.Store.Backend, slog.Default())
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	corsMiddleware := middleware.NewCORS(cfg.Frontend)

	var handler http.Handler = mux
	handler = corsMiddleware.Middleware(handler)
	handler = rateLimiter.Middleware(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			"game", game.GameName,
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"block", gameService.CurrentBlock(),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
