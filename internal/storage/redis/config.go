package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoundTTL expires the archive after this long without a new round.
	// Zero disables expiry.
	RoundTTL time.Duration

	// MaxRounds caps the archive length. Zero keeps every round.
	MaxRounds int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoundTTL:     7 * 24 * time.Hour,
		MaxRounds:    100,
	}
}
