package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to websocket connections
type Server struct {
	handler  Handler
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates a new Server feeding connections to handler
func NewServer(handler Handler, config Config, logger *slog.Logger) *Server {
	s := &Server{
		handler: handler,
		config:  config,
		logger:  logger.With(slog.String("component", "websocket")),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.config.AllowedOrigins, origin)
}

// ServeHTTP upgrades the request and starts the connection's pumps
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := NewConn(uuid.New().String(), ws, s.handler, s.config, s.logger)
	if err := conn.Start(); err != nil {
		s.logger.Warn("connection rejected", slog.String("conn_id", conn.ID()), slog.Any("error", err))
		return
	}
	s.logger.Debug("connection opened",
		slog.String("conn_id", conn.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
