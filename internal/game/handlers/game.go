package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fleets-server/internal/game"
	"fleets-server/internal/shared/errors"
	"fleets-server/internal/shared/response"
	"fleets-server/internal/world"
)

type GameHandler struct {
	service *game.Service
}

func NewGameHandler(service *game.Service) *GameHandler {
	return &GameHandler{service: service}
}

func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "state")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	state, err := h.service.State(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, state)
}

func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "start", func(sender string) (*world.World, error) {
		return h.service.Start(r.Context(), sender)
	})
}

func (h *GameHandler) Build(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "build", func(sender string) (*world.World, error) {
		return h.service.Build(r.Context(), sender)
	})
}

func (h *GameHandler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "update_balance", func(sender string) (*world.World, error) {
		return h.service.UpdateBalance(r.Context(), sender)
	})
}

func (h *GameHandler) SummonFleet(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "summon_fleet", func(sender string) (*world.World, error) {
		size, err := intParam(r, "size")
		if err != nil {
			return nil, err
		}
		return h.service.SummonFleet(r.Context(), sender, size)
	})
}

func (h *GameHandler) SendFleet(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "send_fleet", func(sender string) (*world.World, error) {
		return h.service.SendFleet(r.Context(), sender, r.FormValue("target"))
	})
}

func (h *GameHandler) Battle(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "battle", func(sender string) (*world.World, error) {
		return h.service.Battle(r.Context(), sender, r.FormValue("attacker"), r.FormValue("defender"))
	})
}

func (h *GameHandler) BuildingPrice(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "building_price")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	level, err := intParam(r, "level")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	price, err := h.service.BuildingPrice(level)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, game.PriceQuote{Level: level, Price: price})
}

func (h *GameHandler) Block(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "block")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	response.Success(w, http.StatusOK, game.BlockInfo{Block: h.service.CurrentBlock()})
}

// mutate handles the shared shape of every state-changing endpoint: GET for
// query-string clients, POST for form clients, the resulting world on success.
func (h *GameHandler) mutate(w http.ResponseWriter, r *http.Request, name string, call func(sender string) (*world.World, error)) {
	logger := slog.With("handler", name)

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := r.ParseForm(); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid form body", err))
		return
	}

	state, err := call(r.FormValue("sender"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, state)
}

func intParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, errors.ValidationKind("invalid_argument", name+" is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.WrapValidation("invalid "+name, err)
	}
	return v, nil
}
