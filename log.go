package thicket

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogLevel is the severity of a log message.
type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", l)
	}
}

// ParseLogLevel converts a level name ("debug", "info", "warn", "error").
func ParseLogLevel(s string) (LogLevel, bool) {
	switch s {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// Logger is the sink the engine writes diagnostics to. The engine never
// depends on its output.
type Logger interface {
	Write(level LogLevel, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Write(LogLevel, string) {}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger adapts a logrus logger. A nil logger uses logrus.StandardLogger.
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{entry: l.WithField("component", "thicket")}
}

func (l *logrusLogger) Write(level LogLevel, msg string) {
	switch level {
	case LevelDebug:
		l.entry.Debug(msg)
	case LevelInfo:
		l.entry.Info(msg)
	case LevelWarn:
		l.entry.Warn(msg)
	default:
		l.entry.Error(msg)
	}
}

// logrusLevel maps a LogLevel onto logrus.
func logrusLevel(l LogLevel) logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

func logf(l Logger, level LogLevel, format string, args ...any) {
	if l == nil {
		return
	}
	l.Write(level, fmt.Sprintf(format, args...))
}
