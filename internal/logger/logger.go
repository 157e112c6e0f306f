// Package logger provides structured, context-aware logging built on
// log/slog, with a colorized console handler for local/CLI use.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Level mirrors slog's levels so callers don't need to import log/slog
// directly just to pick a level.
type Level = slog.Level

const (
	LevelDebug Level = slog.LevelDebug
	LevelInfo  Level = slog.LevelInfo
	LevelWarn  Level = slog.LevelWarn
	LevelError Level = slog.LevelError
)

// LoggerInterface is the ctx-first logging contract used across the
// codebase so components depend on an interface, not *Logger directly.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) LoggerInterface
}

// Logger wraps a *slog.Logger.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger writing to w at the given level. name becomes
// the "service" attribute on every record; extra is merged in as
// additional static attributes (may be nil).
func New(w io.Writer, level Level, name string, extra map[string]any) *Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(formatRFC3339Millis(a.Value.Time()))
			}
			return a
		},
	})

	l := slog.New(handler)
	if name != "" {
		l = l.With("service", name)
	}
	for k, v := range extra {
		l = l.With(k, v)
	}
	return &Logger{slog: l}
}

// NewJSON creates a Logger emitting structured JSON, for non-interactive
// production deployments where a log aggregator parses the output.
func NewJSON(w io.Writer, level Level, name string, extra map[string]any) *Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	if name != "" {
		l = l.With("service", name)
	}
	for k, v := range extra {
		l = l.With(k, v)
	}
	return &Logger{slog: l}
}

func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.slog.DebugContext(ctx, msg, kv...)
}

func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.slog.InfoContext(ctx, msg, kv...)
}

func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.slog.WarnContext(ctx, msg, kv...)
}

func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.slog.ErrorContext(ctx, msg, kv...)
}

// With returns a Logger with kv permanently attached to every record.
func (l *Logger) With(kv ...any) LoggerInterface {
	return &Logger{slog: l.slog.With(kv...)}
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}
