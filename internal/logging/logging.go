// Package logging builds the slog loggers used by the engine and the CLI.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Silent is above every standard level.
const Silent = slog.Level(100)

// NewLogger returns a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *slog.Logger {
	return NewLogger(io.Discard, Silent)
}

// LevelFromString converts debug, info, warn or error (any case) to a
// level. Unrecognized strings give warn, the CLI default.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "off", "silent":
		return Silent
	default:
		return slog.LevelWarn
	}
}

// ValidLevel reports whether s names a level LevelFromString knows.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error", "off", "silent":
		return true
	}
	return false
}

// LevelFor resolves the effective level: verbose forces debug, otherwise
// the configured level applies.
func LevelFor(configured string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return LevelFromString(configured)
}
