package common

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// ILogger is the logging seam every subsystem takes a dependency on,
// mirroring the teacher's common/logger.go ILogger/ILoggerCloser split —
// kept here as a single interface since this repo has no per-job log file
// to open and close, only a single process-wide stream.
type ILogger interface {
	ShouldLog(level LogLevel) bool
	Log(level LogLevel, msg string)
	Logf(level LogLevel, format string, args ...interface{})
	Panic(err error)
}

// stdLogger writes through the standard library's log.Logger, the same
// choice the teacher makes in common/logger.go rather than reaching for an
// external structured-logging package.
type stdLogger struct {
	minimumLevel LogLevel
	mu           sync.Mutex
	out          *log.Logger
}

// NewLogger returns an ILogger that writes to stderr with a microsecond
// timestamp prefix, filtering anything below minimumLevel.
func NewLogger(minimumLevel LogLevel) ILogger {
	return &stdLogger{
		minimumLevel: minimumLevel,
		out:          log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
}

func (l *stdLogger) ShouldLog(level LogLevel) bool {
	if level == ELogLevel.None() {
		return false
	}
	return level <= l.minimumLevel
}

func (l *stdLogger) Log(level LogLevel, msg string) {
	if !l.ShouldLog(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("[%s] %s", level, msg)
}

func (l *stdLogger) Logf(level LogLevel, format string, args ...interface{}) {
	if !l.ShouldLog(level) {
		return
	}
	l.Log(level, fmt.Sprintf(format, args...))
}

func (l *stdLogger) Panic(err error) {
	l.Log(ELogLevel.Fatal(), err.Error())
	panic(err)
}

// nopLogger discards everything; used as the zero-value default so callers
// that forget to wire a logger don't nil-panic, matching the teacher's
// pattern of a harmless default lifecycle manager (common/lifecyleMgr.go).
type nopLogger struct{}

func (nopLogger) ShouldLog(LogLevel) bool                      { return false }
func (nopLogger) Log(LogLevel, string)                          {}
func (nopLogger) Logf(LogLevel, string, ...interface{})         {}
func (nopLogger) Panic(err error)                                { panic(err) }

// NopLogger is a shared no-op logger instance.
var NopLogger ILogger = nopLogger{}
