// Package logger builds the application's structured slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging (staging): JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
//
// A nil w writes to os.Stdout.
func Setup(env string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}

// SetupDefault builds the logger for env and installs it as slog's default,
// so package-level slog calls in handlers and the service use it.
func SetupDefault(env string, w io.Writer) *slog.Logger {
	l := Setup(env, w)
	slog.SetDefault(l)
	return l
}
