package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for logging:
// - LevelFromString maps names case-insensitively and defaults to warn
// - LevelFor lets verbose override the configured level
// - NewLogger filters below its level; the discard logger writes nothing

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"off", Silent},
		{"bogus", slog.LevelWarn},
		{"", slog.LevelWarn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromString(tt.in), tt.in)
	}

	assert.True(t, ValidLevel("Debug"))
	assert.False(t, ValidLevel("bogus"))
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, LevelFor("error", true))
	assert.Equal(t, slog.LevelError, LevelFor("error", false))
}

func TestNewLogger_Filters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Info("hidden message")
	logger.Warn("shown message", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "shown message")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "level=WARN")
}

func TestNewDiscardLogger(t *testing.T) {
	t.Parallel()

	logger := NewDiscardLogger()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
