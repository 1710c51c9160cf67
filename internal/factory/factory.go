package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/bingohall/internal/api"
	"github.com/mcoot/bingohall/internal/config"
	"github.com/mcoot/bingohall/internal/coordinator"
	"github.com/mcoot/bingohall/internal/dependencies/clock"
	"github.com/mcoot/bingohall/internal/dependencies/random"
	"github.com/mcoot/bingohall/internal/notify"
	"github.com/mcoot/bingohall/internal/services/caller"
	"github.com/mcoot/bingohall/internal/services/game"
	"github.com/mcoot/bingohall/internal/services/registry"
	"github.com/mcoot/bingohall/internal/services/wins"
	"github.com/mcoot/bingohall/internal/storage"
	"github.com/mcoot/bingohall/internal/storage/memory"
	redisstorage "github.com/mcoot/bingohall/internal/storage/redis"
	"github.com/mcoot/bingohall/internal/transport/websocket"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry       *registry.Registry
	Caller         *caller.Caller
	Validator      *wins.Validator
	GameController *game.Controller
	Notifier       *notify.Notifier
	Coordinator    *coordinator.Coordinator
	WebSocket      *websocket.Server

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the round archive ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MaxRounds caps the in-memory archive
	MaxRounds int

	Coordinator coordinator.Config
	// Wins holds claim rules; zero value means wins.DefaultConfig()
	Wins wins.Config
	// WebSocket holds transport settings; zero value means websocket.DefaultConfig()
	WebSocket websocket.Config
}

// FromConfig maps loaded application configuration onto the factory config
func FromConfig(cfg config.Config, logger *slog.Logger) Config {
	coord := coordinator.DefaultConfig()
	coord.AdminPassword = cfg.Game.AdminPassword
	coord.AdminPasswordHash = cfg.Game.AdminPasswordHash
	coord.AutoCallInterval = cfg.Game.AutoCallInterval
	coord.HeartbeatInterval = cfg.Game.HeartbeatInterval
	coord.HeartbeatTimeout = cfg.Game.HeartbeatTimeout

	ws := websocket.DefaultConfig()
	ws.AllowedOrigins = cfg.Server.AllowedOrigins
	// Keep idle reads alive across at least one heartbeat round trip
	if ws.ReadTimeout <= cfg.Game.HeartbeatInterval {
		ws.ReadTimeout = cfg.Game.HeartbeatInterval + ws.WriteWait
	}

	out := Config{
		Logger:      logger,
		StorageType: cfg.Storage.Type,
		MaxRounds:   cfg.Storage.MaxRounds,
		Coordinator: coord,
		Wins: wins.Config{
			MinMarked:          cfg.Game.MinMarked,
			AssumedPlayers:     cfg.Game.AssumedPlayers,
			ProfitSharePct:     cfg.Game.ProfitSharePct,
			PoolSharePct:       cfg.Game.PoolSharePct,
			RequireCalledMarks: cfg.Game.RequireCalledMarks,
			MaxStake:           cfg.Game.MaxStake,
		},
		WebSocket: ws,
	}

	if cfg.Storage.Type == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.Redis.URL
		redisCfg.PoolSize = cfg.Storage.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Storage.Redis.MinIdleConns
		redisCfg.RoundTTL = cfg.Storage.RoundTTL
		redisCfg.MaxRounds = cfg.Storage.MaxRounds
		out.RedisConfig = &redisCfg
	}

	return out
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(cfg.MaxRounds)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect round archive: %w", err)
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	winsCfg := cfg.Wins
	if winsCfg == (wins.Config{}) {
		winsCfg = wins.DefaultConfig()
	}
	wsCfg := cfg.WebSocket
	if wsCfg.SendBufferSize == 0 {
		origins := wsCfg.AllowedOrigins
		wsCfg = websocket.DefaultConfig()
		wsCfg.AllowedOrigins = origins
	}

	// Create services
	reg := registry.New(logger)
	numberCaller := caller.New(rnd)
	validator := wins.New(winsCfg)
	gameController := game.NewController(reg, numberCaller, validator, clk, logger)
	notifier := notify.New(logger)
	coord := coordinator.New(cfg.Coordinator, gameController, reg, notifier, store, clk, logger)
	wsServer := websocket.NewServer(coord, wsCfg, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Registry:       reg,
		Caller:         numberCaller,
		Validator:      validator,
		GameController: gameController,
		Notifier:       notifier,
		Coordinator:    coord,
		WebSocket:      wsServer,
		logger:         logger,
	}
}

// Handler returns the HTTP handler serving the API, the websocket endpoint
// and, when staticDir is set, static files
func (a *App) Handler(staticDir string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:    a.logger,
		Game:      a.Coordinator,
		Storage:   a.Storage,
		WebSocket: a.WebSocket,
		StaticDir: staticDir,
	})
}

// Close releases the storage connection, if any
func (a *App) Close() error {
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
