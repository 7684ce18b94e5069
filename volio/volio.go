// Package volio is the platform I/O shim: the only package in this module
// that issues raw NTFS ioctls. Everything above it (mft, pathresolve,
// changetracker) talks to the VolumeHandle interface and never touches
// windows.Handle or DeviceIoControl directly — the same separation the
// teacher draws between zc_traverser_local.go (platform-agnostic walk
// logic) and zc_traverser_local_windows.go (the one file allowed to call
// into golang.org/x/sys/windows and ntdll).
package volio

import "github.com/riftcode/volsearch/common"

// Buffer sizes named per spec.md §4.1/§5.
const (
	EnumBufferSize = 16 * 1024 * 1024
	PollBufferSize = 256 * 1024
)

// JournalData is the subset of USN_JOURNAL_DATA_V0 callers need: the
// journal identity (to detect resets) and the current USN cursor.
type JournalData struct {
	JournalID      uint64
	FirstUSN       int64
	NextUSN        int64
	LowestValidUSN int64
	MaxUSN         int64
}

// VolumeHandle is an open NTFS volume, positioned for MFT enumeration and
// USN journal reads. Implementations are platform-specific; callers obtain
// one from OpenVolume and must Close it.
type VolumeHandle interface {
	// Letter returns the drive letter this handle was opened for.
	Letter() byte

	// QueryJournal issues FSCTL_QUERY_USN_JOURNAL.
	QueryJournal() (JournalData, error)

	// EnumerateUSNData issues FSCTL_ENUM_USN_DATA starting at startFRN,
	// filling buf with raw USN_RECORD_V2 entries and returning the FRN to
	// resume from and the number of bytes written into buf. n == 0 means
	// enumeration is complete.
	EnumerateUSNData(startFRN uint64, buf []byte) (nextFRN uint64, n int, err error)

	// ReadUSNJournal issues FSCTL_READ_USN_JOURNAL starting at startUSN,
	// filtering by reasonMask, filling buf with raw USN_RECORD_V2 change
	// records and returning the USN to resume from.
	ReadUSNJournal(startUSN int64, reasonMask uint32, buf []byte) (nextUSN int64, n int, err error)

	// ResolvePathByFileID opens fileRef by file ID and returns its full
	// path, rooted at this volume's drive letter.
	ResolvePathByFileID(fileRef uint64) (string, error)

	Close() error
}

// OpenVolume opens letter (e.g. 'C') for MFT/USN access. The returned
// handle is platform-specific; see volio_windows.go / volio_other.go.
func OpenVolume(letter byte) (VolumeHandle, error) {
	return openVolume(letter)
}

// ErrUnsupportedPlatform is returned by every volio entry point when built
// for a non-Windows target: NTFS MFT/USN access has no analog elsewhere,
// and spec.md's Non-goals explicitly exclude non-NTFS/cross-platform parity.
var ErrUnsupportedPlatform = common.NewCoreError(
	common.EErrorKind.VolumeOpen(), 0,
	unsupportedPlatformCause{},
)

type unsupportedPlatformCause struct{}

func (unsupportedPlatformCause) Error() string {
	return "NTFS MFT/USN access is only supported on Windows"
}
