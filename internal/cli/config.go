package cli

import (
	"os"
	"time"
)

// Config holds CLI configuration
type Config struct {
	ServerURL     string
	AdminPassword string
	Output        string
	Verbose       bool
	Timeout       time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:     getEnvOrDefault("BINGOCTL_SERVER", "http://localhost:8080"),
		AdminPassword: os.Getenv("BINGOCTL_ADMIN_PASSWORD"),
		Output:        "text",
		Verbose:       false,
		Timeout:       10 * time.Second,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
