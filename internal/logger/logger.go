// Package logger wraps charmbracelet/log behind a small structured
// logging surface so the rest of the code never imports it directly.
package logger

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the structured logging surface used across the pipeline.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type logger struct {
	l *charmlog.Logger
}

// New creates a logger writing to w at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level string) Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           parseLevel(level),
	})
	return &logger{l: l}
}

// Default returns an info-level logger on stderr.
func Default() Logger {
	return New(os.Stderr, "info")
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() Logger {
	return New(io.Discard, "error")
}

func parseLevel(level string) charmlog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func (g *logger) Debug(msg string, keyvals ...any) { g.l.Debug(msg, keyvals...) }
func (g *logger) Info(msg string, keyvals ...any)  { g.l.Info(msg, keyvals...) }
func (g *logger) Warn(msg string, keyvals ...any)  { g.l.Warn(msg, keyvals...) }
func (g *logger) Error(msg string, keyvals ...any) { g.l.Error(msg, keyvals...) }

func (g *logger) With(keyvals ...any) Logger {
	return &logger{l: g.l.With(keyvals...)}
}
