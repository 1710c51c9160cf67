package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"pgregory.net/rapid"

	"github.com/mcoot/bingohall/internal/services/auth"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Game: GameConfig{
			AdminPassword:     "letmein",
			AutoCallInterval:  7 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			HeartbeatTimeout:  120 * time.Second,
			MinMarked:         5,
			AssumedPlayers:    90,
			ProfitSharePct:    97,
			PoolSharePct:      80,
			MaxStake:          1_000_000_000,
		},
		Storage: StorageConfig{
			Type:      "memory",
			MaxRounds: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
}

func TestLoadDefaultsWithEnvPassword(t *testing.T) {
	t.Setenv("BINGO_GAME_ADMIN_PASSWORD", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Game.AdminPassword)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 7*time.Second, cfg.Game.AutoCallInterval)
	assert.Equal(t, 30*time.Second, cfg.Game.HeartbeatInterval)
	assert.Equal(t, 120*time.Second, cfg.Game.HeartbeatTimeout)
	assert.Equal(t, 5, cfg.Game.MinMarked)
	assert.Equal(t, 90, cfg.Game.AssumedPlayers)
	assert.Equal(t, 97, cfg.Game.ProfitSharePct)
	assert.Equal(t, 80, cfg.Game.PoolSharePct)
	assert.False(t, cfg.Game.RequireCalledMarks)
	assert.Equal(t, int64(1_000_000_000), cfg.Game.MaxStake)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 7*24*time.Hour, cfg.Storage.RoundTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRequiresAdminSecret(t *testing.T) {
	t.Setenv("BINGO_GAME_ADMIN_PASSWORD", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_password")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bingo.yaml")
	hash, err := auth.HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	err = os.WriteFile(path, []byte(`
server:
  port: 9090
  static_dir: ./public
game:
  admin_password_hash: "`+hash+`"
  auto_call_interval: 3s
  require_called_marks: true
storage:
  type: redis
  redis:
    url: redis://localhost:6379/1
logging:
  level: debug
  format: text
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, hash, cfg.Game.AdminPasswordHash)
	assert.Equal(t, "./public", cfg.Server.StaticDir)
	assert.Equal(t, 3*time.Second, cfg.Game.AutoCallInterval)
	assert.True(t, cfg.Game.RequireCalledMarks)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Storage.Redis.URL)
	assert.Equal(t, 10, cfg.Storage.Redis.PoolSize)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bingo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  admin_password: fromfile\nserver:\n  port: 9090\n"), 0644))
	t.Setenv("BINGO_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "fromfile", cfg.Game.AdminPassword)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadFromViper(t *testing.T) {
	v := NewViper()
	v.Set("game.admin_password", "pw")
	v.Set("logging.level", "verbose")

	_, err := LoadFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	v.Set("logging.level", "warn")
	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsMalformedHash(t *testing.T) {
	cfg := validConfig()
	cfg.Game.AdminPasswordHash = "not-a-hash"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_password_hash")
}

func TestValidateStorage(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Type = "redis"
	assert.Error(t, cfg.Validate(), "redis without url")

	cfg.Storage.Redis.URL = "redis://localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Type = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Storage.MaxRounds = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateGame(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameConfig)
	}{
		{"no admin secret", func(g *GameConfig) { g.AdminPassword = "" }},
		{"zero auto call interval", func(g *GameConfig) { g.AutoCallInterval = 0 }},
		{"zero heartbeat interval", func(g *GameConfig) { g.HeartbeatInterval = 0 }},
		{"timeout below interval", func(g *GameConfig) { g.HeartbeatTimeout = 10 * time.Second }},
		{"min marked zero", func(g *GameConfig) { g.MinMarked = 0 }},
		{"profit share above 100", func(g *GameConfig) { g.ProfitSharePct = 101 }},
		{"pool share negative", func(g *GameConfig) { g.PoolSharePct = -1 }},
		{"assumed players negative", func(g *GameConfig) { g.AssumedPlayers = -1 }},
		{"max stake zero", func(g *GameConfig) { g.MaxStake = 0 }},
		{"max stake overflows payout", func(g *GameConfig) { g.MaxStake = 1_321_000_000_000_000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Game)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	cfg := validConfig()
	cfg.Game.AdminPassword = ""
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_password")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestPropertyPercentagesValidated(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		profit := rapid.IntRange(-50, 150).Draw(rt, "profit")
		pool := rapid.IntRange(-50, 150).Draw(rt, "pool")

		cfg := validConfig()
		cfg.Game.ProfitSharePct = profit
		cfg.Game.PoolSharePct = pool

		inRange := profit >= 0 && profit <= 100 && pool >= 0 && pool <= 100
		if err := cfg.Validate(); (err == nil) != inRange {
			rt.Fatalf("profit=%d pool=%d: valid=%v, err=%v", profit, pool, inRange, err)
		}
	})
}

func TestMaxStakeBoundary(t *testing.T) {
	cfg := validConfig()
	// 90 * 97 * 80 = 698400
	cfg.Game.MaxStake = math.MaxInt64 / 698400
	assert.NoError(t, cfg.Validate())

	cfg.Game.MaxStake++
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.max_stake")
}

func TestPropertyPortRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		port := rapid.IntRange(-1000, 70000).Draw(rt, "port")
		cfg := validConfig()
		cfg.Server.Port = port

		err := cfg.Validate()
		if port >= 0 && port <= 65535 {
			if err != nil {
				rt.Fatalf("port %d should be valid: %v", port, err)
			}
		} else if err == nil {
			rt.Fatalf("port %d should be invalid", port)
		}
	})
}
