package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l := Cron(base)
	l.Info("wake", "now", "later")
	assert.Empty(t, buf.String())

	l.Error(errors.New("boom"), "job panicked", "entry", 1)
	out := buf.String()
	assert.Contains(t, out, "job panicked")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "component=cron")
}
