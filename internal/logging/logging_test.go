package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, levelFromString("ERROR"))
	assert.Equal(t, slog.LevelWarn, levelFromString("warning"))
	assert.Equal(t, slog.LevelInfo, levelFromString(" info "))
	assert.Equal(t, slog.LevelDebug, levelFromString(""))
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("lead committed", "url", "http://x/1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "lead committed", record["msg"])
	assert.Equal(t, "http://x/1", record["url"])
}
