package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/bingohall/internal/api/response"
	"github.com/mcoot/bingohall/internal/storage"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports liveness and archive reachability
type HealthHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage storage.Storage, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		logger:  logger,
	}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("storage health check failed", slog.Any("error", err))
		response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "degraded", Storage: "unreachable"})
		return
	}

	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: "ok"})
}
