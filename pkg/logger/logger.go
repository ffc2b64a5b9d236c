// Package logger provides the application's slog construction and the
// shared attribute helpers used across domain packages.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the root *slog.Logger.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger builds the root logger.
//
// Level comes from LOG_LEVEL (debug, info, warn/warning, error; default info).
// In production (GO_ENV=production) output is JSON, otherwise human-readable
// text.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Scope returns the attr identifying the subsystem a log line came from.
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Error returns the standard error attr.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
