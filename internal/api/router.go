package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bingohall/internal/api/handler"
	"github.com/mcoot/bingohall/internal/api/middleware"
	"github.com/mcoot/bingohall/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	Game   handler.SnapshotSource
	// Storage is the round archive
	Storage storage.Storage
	// WebSocket serves /ws; the route is skipped when nil
	WebSocket http.Handler
	// StaticDir is served at / when set
	StaticDir string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	gameHandler := handler.NewGameHandler(cfg.Game, cfg.Storage, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.Logger)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/state", gameHandler.State).Methods(http.MethodGet)
	api.HandleFunc("/rounds", gameHandler.Rounds).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Websocket upgrade; the logging writer supports Hijack
	if cfg.WebSocket != nil {
		r.Handle("/ws", loggingMiddleware(cfg.WebSocket)).Methods(http.MethodGet)
	}

	if cfg.StaticDir != "" {
		r.PathPrefix("/").Methods(http.MethodGet).Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
