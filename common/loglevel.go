package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// LogLevel mirrors the teacher's ELogLevel (common/fe-ste-models.go): a
// small ordered severity enum consumed by ILogger.ShouldLog.
type LogLevel uint8

const (
	logLevelNone LogLevel = iota
	logLevelFatal
	logLevelError
	logLevelWarn
	logLevelInfo
	logLevelDebug
)

var ELogLevel = LogLevel(logLevelNone)

func (LogLevel) None() LogLevel  { return LogLevel(logLevelNone) }
func (LogLevel) Fatal() LogLevel { return LogLevel(logLevelFatal) }
func (LogLevel) Error() LogLevel { return LogLevel(logLevelError) }
func (LogLevel) Warn() LogLevel  { return LogLevel(logLevelWarn) }
func (LogLevel) Info() LogLevel  { return LogLevel(logLevelInfo) }
func (LogLevel) Debug() LogLevel { return LogLevel(logLevelDebug) }

func (l *LogLevel) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(l), s, true, true)
	if err == nil {
		*l = val.(LogLevel)
	}
	return err
}

func (l LogLevel) String() string {
	switch l {
	case ELogLevel.None():
		return "NONE"
	case ELogLevel.Fatal():
		return "FATAL"
	case ELogLevel.Error():
		return "ERROR"
	case ELogLevel.Warn():
		return "WARN"
	case ELogLevel.Info():
		return "INFO"
	case ELogLevel.Debug():
		return "DEBUG"
	default:
		return enum.StringInt(l, reflect.TypeOf(l))
	}
}
