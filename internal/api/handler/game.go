package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/bingohall/internal/api/request"
	"github.com/mcoot/bingohall/internal/api/response"
	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/storage"
)

// SnapshotSource provides the live game view
type SnapshotSource interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// GameHandler handles read-only game endpoints
type GameHandler struct {
	source  SnapshotSource
	storage storage.Storage
	logger  *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(source SnapshotSource, storage storage.Storage, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		source:  source,
		storage: storage,
		logger:  logger,
	}
}

// State handles GET /api/v1/state
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snap))
}

// Rounds handles GET /api/v1/rounds
func (h *GameHandler) Rounds(w http.ResponseWriter, r *http.Request) {
	q, err := request.ParseRoundsQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	rounds, err := h.storage.ListRounds(r.Context(), q.Limit)
	if err != nil {
		h.logger.Error("failed to list rounds", slog.Any("error", err))
		WriteError(w, err)
		return
	}

	resp := response.RoundsResponse{Rounds: make([]response.Round, len(rounds))}
	for i, round := range rounds {
		resp.Rounds[i] = response.RoundFromModel(round)
	}
	response.JSON(w, http.StatusOK, resp)
}
