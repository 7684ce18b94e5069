// Package common holds the small, dependency-light types shared by every
// subsystem: error kinds, log levels, volume lifecycle states, and a couple
// of concurrency primitives. It plays the same role the teacher's own
// common package does — a leaf package everything else imports — but is
// scoped to this repo's domain instead of blob/file/queue transfer.
package common

import (
	"fmt"
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// ErrorKind classifies every error the core can surface, per spec.md §7.
type ErrorKind uint8

const (
	errorKindNone ErrorKind = iota
	errorKindVolumeOpen
	errorKindJournalQuery
	errorKindEnumerationAborted
	errorKindPathResolve
	errorKindSerialization
	errorKindJournalReset
	errorKindInvalidArgument
)

// EErrorKind is the registered-enum accessor, following the teacher's
// EJobStatus / ELogLevel convention (common/fe-ste-models.go).
var EErrorKind = ErrorKind(errorKindNone)

func (ErrorKind) None() ErrorKind                { return ErrorKind(errorKindNone) }
func (ErrorKind) VolumeOpen() ErrorKind           { return ErrorKind(errorKindVolumeOpen) }
func (ErrorKind) JournalQuery() ErrorKind         { return ErrorKind(errorKindJournalQuery) }
func (ErrorKind) EnumerationAborted() ErrorKind   { return ErrorKind(errorKindEnumerationAborted) }
func (ErrorKind) PathResolve() ErrorKind          { return ErrorKind(errorKindPathResolve) }
func (ErrorKind) Serialization() ErrorKind        { return ErrorKind(errorKindSerialization) }
func (ErrorKind) JournalReset() ErrorKind         { return ErrorKind(errorKindJournalReset) }
func (ErrorKind) InvalidArgument() ErrorKind      { return ErrorKind(errorKindInvalidArgument) }

func (k *ErrorKind) Parse(s string) error {
	val, err := enum.ParseInt(reflect.TypeOf(k), s, true, true)
	if err == nil {
		*k = val.(ErrorKind)
	}
	return err
}

func (k ErrorKind) String() string {
	switch k {
	case EErrorKind.None():
		return "NONE"
	case EErrorKind.VolumeOpen():
		return "VOLUME_OPEN"
	case EErrorKind.JournalQuery():
		return "JOURNAL_QUERY"
	case EErrorKind.EnumerationAborted():
		return "ENUMERATION_ABORTED"
	case EErrorKind.PathResolve():
		return "PATH_RESOLVE"
	case EErrorKind.Serialization():
		return "SERIALIZATION"
	case EErrorKind.JournalReset():
		return "JOURNAL_RESET"
	case EErrorKind.InvalidArgument():
		return "INVALID_ARGUMENT"
	default:
		return enum.StringInt(k, reflect.TypeOf(k))
	}
}

// CoreError wraps an underlying cause with the ErrorKind the caller needs to
// branch on (spec.md §7's propagation policy relies on callers telling
// VolumeOpen apart from, say, PathResolve without string-matching messages)
// and, where relevant, the drive letter the error occurred on.
type CoreError struct {
	Kind   ErrorKind
	Drive  byte // 0 if not applicable
	Cause  error
}

func NewCoreError(kind ErrorKind, drive byte, cause error) *CoreError {
	return &CoreError{Kind: kind, Drive: drive, Cause: cause}
}

func (e *CoreError) Error() string {
	if e.Drive != 0 {
		return fmt.Sprintf("%s (drive %c:): %v", e.Kind, e.Drive, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *CoreError) Unwrap() error { return e.Cause }
