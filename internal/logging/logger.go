package logging

import (
	"fmt"
	"io"
	logpkg "log"
	"os"
	"strings"
)

// Level defines severity for logger output.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel maps a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *logpkg.Logger
}

// New creates a logger writing to w with desired level and prefix.
func New(w io.Writer, level Level, prefix string) *Logger {
	return &Logger{
		level:  level,
		logger: logpkg.New(w, prefix, logpkg.LstdFlags|logpkg.Lmicroseconds),
	}
}

// SetLevel adjusts current logging level.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.level = level
}

func (l *Logger) logf(target Level, tag, format string, args ...any) {
	if l == nil || target > l.level {
		return
	}
	l.logger.Output(3, tag+fmt.Sprintf(format, args...))
}

// Debugf prints debug messages.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, "DEBUG ", format, args...)
}

// Infof prints info messages.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, "INFO ", format, args...)
}

// Warnf prints warning messages.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, "WARN ", format, args...)
}

// Errorf prints error messages.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, "ERROR ", format, args...)
}

var defaultLogger = New(os.Stderr, LevelInfo, "[slime] ")

// Get returns the global logger.
func Get() *Logger {
	return defaultLogger
}

// Set replaces the global logger (primarily for tests).
func Set(l *Logger) {
	if l == nil {
		return
	}
	defaultLogger = l
}
