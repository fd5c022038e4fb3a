// Package logger writes leveled diagnostics for the plugin.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Logger is safe for concurrent use.
type Logger struct {
	l   *log.Logger
	min Level
}

// New returns a logger writing lines of the form "[name] LEVEL message" to w,
// dropping messages below min.
func New(w io.Writer, name string, min Level) *Logger {
	return &Logger{
		l:   log.New(w, "["+name+"] ", log.Ltime|log.Lmsgprefix),
		min: min,
	}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(io.Discard, "", LevelError+1)
}

// Open returns a logger writing to the platform sink and, if path is not
// empty, appending to the file at path. Failing to open the file is not fatal:
// the logger still writes to the sink and the error is returned for the
// caller to report.
func Open(name, path string, min Level) (*Logger, io.Closer, error) {
	sink := platformSink()
	if path == "" {
		return New(sink, name, min), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return New(sink, name, min), io.NopCloser(nil), fmt.Errorf("open log file: %w", err)
	}
	return New(io.MultiWriter(sink, f), name, min), f, nil
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.min {
		return
	}
	l.l.Print(level.String() + " " + strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
