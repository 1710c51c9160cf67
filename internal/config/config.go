// Package config provides Viper-based configuration loading for the bingo hall server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcoot/bingohall/internal/services/auth"
	"github.com/mcoot/bingohall/internal/services/wins"
)

// EnvPrefix prefixes every environment override, e.g. BINGO_SERVER_PORT.
const EnvPrefix = "BINGO"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// StaticDir is served at / when non-empty.
	StaticDir string `mapstructure:"static_dir"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds session and payout settings.
type GameConfig struct {
	AdminPassword string `mapstructure:"admin_password"`
	// AdminPasswordHash is a bcrypt hash; it takes precedence over AdminPassword.
	AdminPasswordHash  string        `mapstructure:"admin_password_hash"`
	AutoCallInterval   time.Duration `mapstructure:"auto_call_interval"`
	HeartbeatInterval  time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout   time.Duration `mapstructure:"heartbeat_timeout"`
	MinMarked          int           `mapstructure:"min_marked"`
	AssumedPlayers     int           `mapstructure:"assumed_players"`
	ProfitSharePct     int           `mapstructure:"profit_share_pct"`
	PoolSharePct       int           `mapstructure:"pool_share_pct"`
	RequireCalledMarks bool          `mapstructure:"require_called_marks"`
	// MaxStake caps a single registration; it must keep the payout within int64.
	MaxStake int64 `mapstructure:"max_stake"`
}

// StorageConfig selects and configures the round archive.
type StorageConfig struct {
	// Type is "memory" or "redis".
	Type      string        `mapstructure:"type"`
	MaxRounds int           `mapstructure:"max_rounds"`
	Redis     RedisConfig   `mapstructure:"redis"`
	RoundTTL  time.Duration `mapstructure:"round_ttl"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "text".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants and reports every violation.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateGame(c.Game),
		validateStorage(c.Storage),
		validateLogging(c.Logging),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 0-65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		errs = append(errs, "server timeouts must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.AdminPassword == "" && g.AdminPasswordHash == "" {
		errs = append(errs, "one of game.admin_password or game.admin_password_hash must be set")
	}
	if g.AdminPasswordHash != "" {
		if err := auth.ValidateHash(g.AdminPasswordHash); err != nil {
			errs = append(errs, fmt.Sprintf("game.admin_password_hash: %v", err))
		}
	}
	if g.AutoCallInterval <= 0 {
		errs = append(errs, "game.auto_call_interval must be positive")
	}
	if g.HeartbeatInterval <= 0 {
		errs = append(errs, "game.heartbeat_interval must be positive")
	}
	if g.HeartbeatTimeout < g.HeartbeatInterval {
		errs = append(errs, "game.heartbeat_timeout must not be shorter than game.heartbeat_interval")
	}
	if g.MinMarked < 1 {
		errs = append(errs, fmt.Sprintf("game.min_marked must be >= 1, got %d", g.MinMarked))
	}
	if g.AssumedPlayers < 0 {
		errs = append(errs, "game.assumed_players must not be negative")
	}
	if g.ProfitSharePct < 0 || g.ProfitSharePct > 100 {
		errs = append(errs, fmt.Sprintf("game.profit_share_pct must be 0-100, got %d", g.ProfitSharePct))
	}
	if g.PoolSharePct < 0 || g.PoolSharePct > 100 {
		errs = append(errs, fmt.Sprintf("game.pool_share_pct must be 0-100, got %d", g.PoolSharePct))
	}
	if g.MaxStake < 1 {
		errs = append(errs, fmt.Sprintf("game.max_stake must be >= 1, got %d", g.MaxStake))
	} else if safe := wins.SafeMaxStake(g.winsRules()); g.MaxStake > safe {
		errs = append(errs, fmt.Sprintf("game.max_stake must be <= %d for the configured payout rules, got %d", safe, g.MaxStake))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Type {
	case "memory":
	case "redis":
		if s.Redis.URL == "" {
			return errors.New("storage.redis.url must be set when storage.type is redis")
		}
	default:
		return fmt.Errorf("storage.type must be one of [memory, redis], got %q", s.Type)
	}
	if s.MaxRounds < 1 {
		return fmt.Errorf("storage.max_rounds must be >= 1, got %d", s.MaxRounds)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, text], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the optional YAML file at path, applies
// BINGO_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	v := NewViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and environment overrides wired.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.allowed_origins", []string{})

	// Registered so environment overrides are picked up by Unmarshal.
	v.SetDefault("game.admin_password", "")
	v.SetDefault("game.admin_password_hash", "")
	v.SetDefault("game.auto_call_interval", "7s")
	v.SetDefault("game.heartbeat_interval", "30s")
	v.SetDefault("game.heartbeat_timeout", "120s")
	v.SetDefault("game.min_marked", 5)
	v.SetDefault("game.assumed_players", 90)
	v.SetDefault("game.profit_share_pct", 97)
	v.SetDefault("game.pool_share_pct", 80)
	v.SetDefault("game.require_called_marks", false)
	v.SetDefault("game.max_stake", wins.DefaultMaxStake)

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.max_rounds", 100)
	v.SetDefault("storage.round_ttl", "168h")
	v.SetDefault("storage.redis.url", "")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func (g GameConfig) winsRules() wins.Config {
	return wins.Config{
		AssumedPlayers: g.AssumedPlayers,
		ProfitSharePct: g.ProfitSharePct,
		PoolSharePct:   g.PoolSharePct,
	}
}
