// Package logging is the printf-style logging facade used across summit.
// Records are emitted through the structured logger in observability.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"summit/internal/observability"
)

// Logger is implemented by every component logger.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop discards everything.
func Nop() Logger { return nopLogger{} }

// OrNop returns logger, or Nop when logger is nil or a typed nil pointer.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	if v := reflect.ValueOf(logger); v.Kind() == reflect.Ptr && v.IsNil() {
		return Nop()
	}
	return logger
}

var base atomic.Pointer[observability.Logger]

func init() {
	base.Store(observability.NewLogger(observability.LogConfig{Level: "info", Format: "text"}))
}

// SetDefault replaces the logger behind NewComponentLogger. Loggers already
// handed out keep writing to the previous one.
func SetDefault(logger *observability.Logger) {
	if logger != nil {
		base.Store(logger)
	}
}

// Default returns the logger behind NewComponentLogger.
func Default() *observability.Logger { return base.Load() }

// NewComponentLogger scopes the default logger to component.
func NewComponentLogger(component string) Logger {
	return FromObservabilityWithComponent(Default(), component)
}

// FromObservabilityWithComponent adapts a structured logger to Logger.
func FromObservabilityWithComponent(logger *observability.Logger, component string) Logger {
	if logger == nil {
		return Nop()
	}
	if component != "" {
		logger = logger.With("component", component)
	}
	return &structured{logger: logger}
}

type structured struct {
	logger *observability.Logger
}

func (l *structured) Debug(format string, args ...any) { l.emit(slog.LevelDebug, format, args) }
func (l *structured) Info(format string, args ...any)  { l.emit(slog.LevelInfo, format, args) }
func (l *structured) Warn(format string, args ...any)  { l.emit(slog.LevelWarn, format, args) }
func (l *structured) Error(format string, args ...any) { l.emit(slog.LevelError, format, args) }

func (l *structured) emit(level slog.Level, format string, args []any) {
	l.logger.Log(level, fmt.Sprintf(format, args...))
}

// FromContext tags logger with the request id carried by ctx. Structured
// loggers get a request_id attribute, anything else a message prefix.
func FromContext(ctx context.Context, logger Logger) Logger {
	logger = OrNop(logger)
	id := observability.RequestIDFromContext(ctx)
	if id == "" {
		return logger
	}
	switch l := logger.(type) {
	case nopLogger:
		return l
	case *structured:
		return &structured{logger: l.logger.With("request_id", id)}
	default:
		return &prefixed{next: logger, prefix: "request_id=" + id + " "}
	}
}

type prefixed struct {
	next   Logger
	prefix string
}

func (l *prefixed) Debug(format string, args ...any) { l.next.Debug(l.prefix+format, args...) }
func (l *prefixed) Info(format string, args ...any)  { l.next.Info(l.prefix+format, args...) }
func (l *prefixed) Warn(format string, args ...any)  { l.next.Warn(l.prefix+format, args...) }
func (l *prefixed) Error(format string, args ...any) { l.next.Error(l.prefix+format, args...) }
