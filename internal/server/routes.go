package server

import (
	"log/slog"
	"net/http"

	"fleets-server/internal/game"
	gameHandlers "fleets-server/internal/game/handlers"
	"fleets-server/internal/realtime"
	serverHandlers "fleets-server/internal/server/handlers"
)

type Routes struct {
	gameService *game.Service
	hub         *realtime.Hub
	backend     string
	logger      *slog.Logger
}

func NewRoutes(gameService *game.Service, hub *realtime.Hub, backend string, logger *slog.Logger) *Routes {
	return &Routes{
		gameService: gameService,
		hub:         hub,
		backend:     backend,
		logger:      logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.gameService, r.backend)
	gameStatusHandler := gameHandlers.NewGameStatusHandler(r.gameService)
	playersHandler := gameHandlers.NewPlayersHandler(r.gameService)
	gameHandler := gameHandlers.NewGameHandler(r.gameService)

	// Queries
	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/api/game/status", gameStatusHandler)
	mux.Handle("/api/players", playersHandler)
	mux.HandleFunc("/api/state", gameHandler.State)
	mux.HandleFunc("/api/buildingPrice", gameHandler.BuildingPrice)
	mux.HandleFunc("/api/block", gameHandler.Block)
	mux.HandleFunc("/api/stream", r.hub.Handler(r.gameService))

	// Mutations
	mux.HandleFunc("/api/start", gameHandler.Start)
	mux.HandleFunc("/api/build", gameHandler.Build)
	mux.HandleFunc("/api/updateBalance", gameHandler.UpdateBalance)
	mux.HandleFunc("/api/summonFleet", gameHandler.SummonFleet)
	mux.HandleFunc("/api/sendFleet", gameHandler.SendFleet)
	mux.HandleFunc("/api/battle", gameHandler.Battle)

	logger.Info("Routes configured successfully",
		"query_endpoints", []string{"/api/server/health", "/api/game/status", "/api/players", "/api/state", "/api/buildingPrice", "/api/block", "/api/stream"},
		"mutation_endpoints", []string{"/api/start", "/api/build", "/api/updateBalance", "/api/summonFleet", "/api/sendFleet", "/api/battle"},
	)

	return mux
}
