package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := Setup(&buf, slog.LevelInfo, FormatJSON)
	require.NoError(t, err)

	l.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "raw output: %s", buf.String())
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestSetup_Text(t *testing.T) {
	var buf bytes.Buffer
	l, err := Setup(&buf, slog.LevelInfo, FormatText)
	require.NoError(t, err)

	l.Warn("careful", "id", "42")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "id=42")
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := Setup(&buf, slog.LevelWarn, FormatText)
	require.NoError(t, err)

	l.Info("hidden")
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup_UnknownFormat(t *testing.T) {
	_, err := Setup(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetupDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	_, err := SetupDefault(&buf, slog.LevelInfo, FormatJSON)
	require.NoError(t, err)

	slog.Info("via default")
	assert.Contains(t, buf.String(), `"msg":"via default"`)
}
