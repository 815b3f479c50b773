package handlers

import (
	"log/slog"
	"net/http"

	"fleets-server/internal/game"
	"fleets-server/internal/shared/errors"
	"fleets-server/internal/shared/response"
)

type PlayersHandler struct {
	service *game.Service
}

func NewPlayersHandler(service *game.Service) *PlayersHandler {
	return &PlayersHandler{service: service}
}

func (h *PlayersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players", "remote_addr", r.RemoteAddr)
	logger.Debug("Players list requested")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	players, err := h.service.Players(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, players)
	logger.Debug("Players list completed", "player_count", len(players))
}
