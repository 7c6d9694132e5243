// Package logger builds the process-wide slog.Logger.
//
// Development gets colored, human-readable output via tint; every other
// environment gets one JSON object per line for log shipping.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a logger writing to stdout.
func New(development bool, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, development, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, development bool, level string) *slog.Logger {
	lvl := ParseLevel(level)

	if development {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	}))
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
