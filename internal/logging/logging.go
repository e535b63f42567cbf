// Package logging builds the process-wide structured logger. Components
// receive the *slog.Logger explicitly; nothing logs through a global.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a JSON logger writing to w. Production logs start at info,
// every other environment at debug.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelDebug
	if strings.EqualFold(env, "production") {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard is a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
