package client

import (
	"fmt"
	"log/slog"
)

// Logger is an optional package logger used for non-fatal warnings and
// resolution tracing.
type Logger interface {
	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)
	// Debugf logs a formatted debug message.
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return slogLogger{l: l}
}

func (s slogLogger) Warnf(format string, args ...any) {
	s.l.Warn(fmt.Sprintf(format, args...))
}

func (s slogLogger) Debugf(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

// slogFrom returns the slog logger behind l, if any.
func slogFrom(l Logger) *slog.Logger {
	if s, ok := l.(slogLogger); ok {
		return s.l
	}
	return nil
}
