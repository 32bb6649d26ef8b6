// Package logger provides the leveled logger shared by locus packages.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// Logger is a leveled printf-style logger
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	// WithPrefix returns a logger with the same level that prefixes every line
	WithPrefix(prefix string) Logger
}

// Levels, from least to most verbose
const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func levelPrefix(level int) string {
	return [...]string{"ERROR: ", "WARN:  ", "INFO:  ", "DEBUG: "}[level]
}

// ParseLevel parses debug, info, warn or error
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

var _ Logger = &nopLogger{}

// NopLogger discards everything
var NopLogger Logger = &nopLogger{}

type nopLogger struct{}

func (n *nopLogger) Printf(format string, v ...interface{}) {}
func (n *nopLogger) Debugf(format string, v ...interface{}) {}
func (n *nopLogger) Infof(format string, v ...interface{})  {}
func (n *nopLogger) Warnf(format string, v ...interface{})  {}
func (n *nopLogger) Errorf(format string, v ...interface{}) {}

func (n *nopLogger) WithPrefix(prefix string) Logger { return n }

// StderrLogger logs at info level to stderr
var StderrLogger Logger = New(os.Stderr, LevelInfo)

type standardLogger struct {
	logger *log.Logger
	level  int
	prefix string
	w      io.Writer
}

// utcWriter stamps each line in UTC with microsecond resolution
type utcWriter struct {
	w io.Writer
}

func (u utcWriter) Write(p []byte) (int, error) {
	return fmt.Fprintf(u.w, "%s %s", time.Now().UTC().Format(timeFormat), p)
}

// New returns a logger writing lines at or below level to w
func New(w io.Writer, level int) Logger {
	return newStandardLogger(w, level, "")
}

func newStandardLogger(w io.Writer, level int, prefix string) *standardLogger {
	if level < LevelError {
		level = LevelError
	}
	if level > LevelDebug {
		level = LevelDebug
	}
	return &standardLogger{
		logger: log.New(utcWriter{w: w}, prefix, log.Lmsgprefix),
		level:  level,
		prefix: prefix,
		w:      w,
	}
}

func (s *standardLogger) printf(level int, format string, v ...interface{}) {
	if level > s.level {
		return
	}
	s.logger.Printf(levelPrefix(level)+format, v...)
}

func (s *standardLogger) Printf(format string, v ...interface{}) { s.printf(LevelInfo, format, v...) }
func (s *standardLogger) Debugf(format string, v ...interface{}) { s.printf(LevelDebug, format, v...) }
func (s *standardLogger) Infof(format string, v ...interface{})  { s.printf(LevelInfo, format, v...) }
func (s *standardLogger) Warnf(format string, v ...interface{})  { s.printf(LevelWarn, format, v...) }
func (s *standardLogger) Errorf(format string, v ...interface{}) { s.printf(LevelError, format, v...) }

func (s *standardLogger) WithPrefix(prefix string) Logger {
	return newStandardLogger(s.w, s.level, s.prefix+prefix)
}

// Logfer is anything with a Logf method, such as *testing.T
type Logfer interface {
	Logf(format string, v ...interface{})
}

// LogfLogger routes every level to a Logfer
type LogfLogger struct {
	wrapped Logfer
	prefix  string
}

// NewLogfLogger wraps l
func NewLogfLogger(l Logfer) *LogfLogger {
	return &LogfLogger{wrapped: l}
}

func (ll *LogfLogger) logf(format string, v ...interface{}) {
	ll.wrapped.Logf(ll.prefix+format, v...)
}

func (ll *LogfLogger) Printf(format string, v ...interface{}) { ll.logf(format, v...) }
func (ll *LogfLogger) Debugf(format string, v ...interface{}) { ll.logf(format, v...) }
func (ll *LogfLogger) Infof(format string, v ...interface{})  { ll.logf(format, v...) }
func (ll *LogfLogger) Warnf(format string, v ...interface{})  { ll.logf(format, v...) }
func (ll *LogfLogger) Errorf(format string, v ...interface{}) { ll.logf(format, v...) }

func (ll *LogfLogger) WithPrefix(prefix string) Logger {
	return &LogfLogger{wrapped: ll.wrapped, prefix: ll.prefix + prefix}
}
