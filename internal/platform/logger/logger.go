package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns the process logger: JSON to stdout, level from
// FEDGATE_LOG_LEVEL (debug|info|warn|error, default info).
func New() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("FEDGATE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
