package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTo_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTo(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Warn("player command failed", "error", errors.New("ipc closed"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `err="ipc closed"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
