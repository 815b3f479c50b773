package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"fleets-server/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
	Backend   string `json:"backend"`
}

// Pinger is anything whose backing store can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger  Pinger
	backend string
}

func NewHealthHandler(pinger Pinger, backend string) *HealthHandler {
	return &HealthHandler{pinger: pinger, backend: backend}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Store:     "connected",
		Backend:   h.backend,
	}
	status := http.StatusOK

	if err := h.pinger.Ping(ctx); err != nil {
		logger.Warn("Store ping failed", "error", err, "backend", h.backend)
		resp.Status = "degraded"
		resp.Store = "disconnected"
		status = http.StatusServiceUnavailable
	}

	response.Success(w, status, resp)
}
