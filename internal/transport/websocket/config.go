package websocket

import "time"

// Config holds websocket transport settings
type Config struct {
	// ReadTimeout closes a connection that sends nothing, not even a pong,
	// for this long. It must exceed the heartbeat interval.
	ReadTimeout time.Duration

	// WriteWait bounds a single frame write
	WriteWait time.Duration

	MaxMessageSize int64
	SendBufferSize int

	// AllowedOrigins restricts browser origins. Empty allows any origin.
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the transport
func DefaultConfig() Config {
	return Config{
		ReadTimeout:    130 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
		SendBufferSize: 256,
	}
}
