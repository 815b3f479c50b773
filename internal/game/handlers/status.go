package handlers

import (
	"log/slog"
	"net/http"

	"fleets-server/internal/game"
	"fleets-server/internal/shared/errors"
	"fleets-server/internal/shared/response"
)

type GameStatusHandler struct {
	service *game.Service
}

func NewGameStatusHandler(service *game.Service) *GameStatusHandler {
	return &GameStatusHandler{service: service}
}

func (h *GameStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "game_status")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	status, err := h.service.Status(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, status)
}
