// SPDX-License-Identifier: MIT
/*
Package log provides the levelled text logger handed to every component at
construction. The process entry point owns the sink and its lifetime;
components only see the Logger interface.

The render callback must never log. Components that run on the render
thread keep counters instead and let the control loop report them.
*/
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// Logger is the logging capability injected into components.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// LevelLogger writes "[LEVEL] component: message" lines through a standard
// library logger, dropping messages below the current level.
type LevelLogger struct {
	level  atomic.Uint32
	prefix string
	out    *stdlog.Logger
}

var _ Logger = (*LevelLogger)(nil)

// New creates a logger writing to w with date, time and microseconds.
func New(w io.Writer, level LogLevel) *LevelLogger {
	l := &LevelLogger{
		out: stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds),
	}
	l.SetLevel(level)
	return l
}

// Open creates a logger appending to the file at path. The caller owns the
// returned closer.
func Open(path string, level LogLevel) (*LevelLogger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, level), f, nil
}

// Named returns a logger sharing the sink and level with l whose lines are
// tagged with component.
func (l *LevelLogger) Named(component string) *LevelLogger {
	n := &LevelLogger{prefix: component + ": ", out: l.out}
	n.SetLevel(l.GetLevel())
	return n
}

// SetLevel sets the logging level atomically.
func (l *LevelLogger) SetLevel(level LogLevel) {
	l.level.Store(uint32(level))
}

// GetLevel gets the current logging level atomically.
func (l *LevelLogger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}

func (l *LevelLogger) logf(level LogLevel, format string, v ...any) {
	if level < l.GetLevel() {
		return
	}
	l.out.Printf("[%s] %s%s", level, l.prefix, fmt.Sprintf(format, v...))
}

// Debugf logs a formatted debug message if the level is appropriate.
func (l *LevelLogger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v...) }

// Infof logs a formatted info message if the level is appropriate.
func (l *LevelLogger) Infof(format string, v ...any) { l.logf(LevelInfo, format, v...) }

// Warnf logs a formatted warning message if the level is appropriate.
func (l *LevelLogger) Warnf(format string, v ...any) { l.logf(LevelWarn, format, v...) }

// Errorf logs a formatted error message if the level is appropriate.
func (l *LevelLogger) Errorf(format string, v ...any) { l.logf(LevelError, format, v...) }

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return discard{}
}
