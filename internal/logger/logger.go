package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a named, levelled printf-style logger
type Logger struct {
	name   string
	base   *slog.Logger
	logger *slog.Logger
}

// NewLogger creates a Logger writing to stdout at the given level
// (DEBUG, INFO, WARNING or ERROR; anything else means INFO)
func NewLogger(level, name string) *Logger {
	return New(os.Stdout, level, name)
}

// New creates a Logger writing to w
func New(w io.Writer, level, name string) *Logger {
	base := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	return &Logger{
		name:   name,
		base:   base,
		logger: base.With(slog.String("component", name)),
	}
}

// Discard returns a Logger that drops every message
func Discard() *Logger {
	return New(io.Discard, "ERROR", "discard")
}

// ParseLevel maps a config level name to a slog level
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Named returns a child logger for a sub component
func (l *Logger) Named(name string) *Logger {
	full := l.name + "." + name
	return &Logger{
		name:   full,
		base:   l.base,
		logger: l.base.With(slog.String("component", full)),
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(slog.LevelError, format, args...)
}

// Critical logs and exits the process
func (l *Logger) Critical(format string, args ...interface{}) {
	l.log(slog.LevelError, format, args...)
	os.Exit(1)
}

func (l *Logger) log(level slog.Level, format string, args ...interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, fmt.Sprintf(format, args...))
}

// DebugEnabled reports whether debug messages are emitted
func (l *Logger) DebugEnabled() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
