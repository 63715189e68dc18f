// Package logger adapts slog to the logger interfaces of third-party libraries.
package logger

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cron wraps l as a cron.Logger. Cron's informational chatter is logged at debug level.
func Cron(l *slog.Logger) cron.Logger {
	return cronLogger{l: l.With("component", "cron")}
}

type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
