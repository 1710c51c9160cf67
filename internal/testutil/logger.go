package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output.
// Coordinator and controller suites log every call and claim, so tests use this.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
