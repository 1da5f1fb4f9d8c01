// Package logging provides structured logging utilities.
//
// Text logs are formatted Maven-style with colors:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value
package logging

import (
	"log/slog"
	"os"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = NewConsoleHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerWithSystem creates a logger with a system prefix (e.g.,
// "allocation", "matching", "transfers"). Useful for scoped loggers
// injected into services.
func NewLoggerWithSystem(cfg config.LoggingConfig, system string) *slog.Logger {
	return NewLogger(cfg).With("system", system)
}
