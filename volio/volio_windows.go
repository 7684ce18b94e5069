//go:build windows
// +build windows

package volio

import (
	"encoding/binary"
	"strings"
	"syscall"
	"unsafe"

	"github.com/hillu/go-ntdll"
	"golang.org/x/sys/windows"

	"github.com/riftcode/volsearch/common"
)

// ioctl codes, ported straight from original_source/mft.rs's constants —
// these are fixed NTFS control-code values, not something to derive.
const (
	fsctlQueryUSNJournal = 0x000900F4
	fsctlEnumUSNData     = 0x000900B3
	fsctlReadUSNJournal  = 0x000900BB
)

// usnJournalDataV0 mirrors USN_JOURNAL_DATA_V0 (winioctl.h) byte-for-byte;
// DeviceIoControl writes directly into it.
type usnJournalDataV0 struct {
	UsnJournalID   uint64
	FirstUsn       int64
	NextUsn        int64
	LowestValidUsn int64
	MaxUsn         int64
	MaximumSize    uint64
	AllocationDelta uint64
}

// mftEnumDataV0 mirrors MFT_ENUM_DATA_V0, the input struct FSCTL_ENUM_USN_DATA
// expects (original_source/mft.rs's MftEnumData).
type mftEnumDataV0 struct {
	StartFileReferenceNumber uint64
	LowUsn                   int64
	HighUsn                  int64
}

// readUSNJournalDataV0 mirrors READ_USN_JOURNAL_DATA_V0, the input struct
// FSCTL_READ_USN_JOURNAL expects.
type readUSNJournalDataV0 struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

type windowsVolumeHandle struct {
	letter byte
	handle windows.Handle
}

func openVolume(letter byte) (VolumeHandle, error) {
	path := `\\.\` + string(letter) + `:`
	srcPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return nil, common.NewCoreError(common.EErrorKind.VolumeOpen(), letter, err)
	}

	// FILE_FLAG_BACKUP_SEMANTICS lets us open the volume root without
	// holding per-file read rights on everything beneath it — the same
	// reason the teacher's WrapFolder opens folders with this flag
	// (cmd/zc_traverser_local_windows.go).
	h, err := windows.CreateFile(srcPtr,
		windows.GENERIC_READ, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil,
		windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return nil, common.NewCoreError(common.EErrorKind.VolumeOpen(), letter, err)
	}
	return &windowsVolumeHandle{letter: letter, handle: h}, nil
}

func (v *windowsVolumeHandle) Letter() byte { return v.letter }

func (v *windowsVolumeHandle) Close() error {
	return windows.CloseHandle(v.handle)
}

func (v *windowsVolumeHandle) QueryJournal() (JournalData, error) {
	var out usnJournalDataV0
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		v.handle, fsctlQueryUSNJournal,
		nil, 0,
		(*byte)(unsafe.Pointer(&out)), uint32(unsafe.Sizeof(out)),
		&bytesReturned, nil,
	)
	if err != nil {
		return JournalData{}, common.NewCoreError(common.EErrorKind.JournalQuery(), v.letter, err)
	}
	return JournalData{
		JournalID:      out.UsnJournalID,
		FirstUSN:       out.FirstUsn,
		NextUSN:        out.NextUsn,
		LowestValidUSN: out.LowestValidUsn,
		MaxUSN:         out.MaxUsn,
	}, nil
}

func (v *windowsVolumeHandle) EnumerateUSNData(startFRN uint64, buf []byte) (uint64, int, error) {
	in := mftEnumDataV0{
		StartFileReferenceNumber: startFRN,
		LowUsn:                   0,
		HighUsn:                  1<<63 - 1,
	}
	var bytesReturned uint32
	err := windows.DeviceIoControl(
		v.handle, fsctlEnumUSNData,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)),
		&bytesReturned, nil,
	)
	if err == windows.ERROR_HANDLE_EOF {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, common.NewCoreError(common.EErrorKind.EnumerationAborted(), v.letter, err)
	}
	if bytesReturned < 8 {
		return 0, 0, nil
	}
	// The first 8 bytes of the output buffer are the next starting FRN;
	// the remaining bytes are packed USN_RECORD_V2 entries (mft.rs's
	// scan_mft loop walks the same shape).
	nextFRN := binary.LittleEndian.Uint64(buf[:8])
	return nextFRN, int(bytesReturned), nil
}

func (v *windowsVolumeHandle) ReadUSNJournal(startUSN int64, reasonMask uint32, buf []byte) (int64, int, error) {
	journal, err := v.QueryJournal()
	if err != nil {
		return 0, 0, err
	}
	in := readUSNJournalDataV0{
		StartUsn:          startUSN,
		ReasonMask:        reasonMask,
		ReturnOnlyOnClose: 0,
		Timeout:           0,
		BytesToWaitFor:    0,
		UsnJournalID:      journal.JournalID,
	}
	var bytesReturned uint32
	err = windows.DeviceIoControl(
		v.handle, fsctlReadUSNJournal,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)),
		&bytesReturned, nil,
	)
	if err != nil {
		return 0, 0, common.NewCoreError(common.EErrorKind.JournalQuery(), v.letter, err)
	}
	if bytesReturned < 8 {
		return startUSN, 0, nil
	}
	nextUSN := int64(binary.LittleEndian.Uint64(buf[:8]))
	return nextUSN, int(bytesReturned), nil
}

// ResolvePathByFileID opens fileRef by file ID using ntdll's raw
// NtCreateFile (the x/sys/windows package has no FILE_OPEN_BY_FILE_ID
// helper), then asks for FileNameInformation the same way the teacher's
// WrapFolder asks NtQueryInformationFile for FileBasicInformation.
func (v *windowsVolumeHandle) ResolvePathByFileID(fileRef uint64) (string, error) {
	ref := fileRef & 0x0000FFFFFFFFFFFF

	var fileIDBytes [8]byte
	binary.LittleEndian.PutUint64(fileIDBytes[:], ref)

	objName := ntdll.UnicodeString{
		Length:        8,
		MaximumLength: 8,
		Buffer:        (*uint16)(unsafe.Pointer(&fileIDBytes[0])),
	}
	objAttr := ntdll.ObjectAttributes{
		Length:     uint32(unsafe.Sizeof(ntdll.ObjectAttributes{})),
		RootHandle: ntdll.Handle(v.handle),
		ObjectName: &objName,
	}

	var fileHandle ntdll.Handle
	var ioStatus ntdll.IoStatusBlock
	status := ntdll.NtCreateFile(
		&fileHandle,
		windows.GENERIC_READ|windows.FILE_READ_ATTRIBUTES,
		&objAttr,
		&ioStatus,
		nil, 0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		ntdll.FileOpen,
		ntdll.FileOpenByFileId|ntdll.FileOpenForBackupIntent,
		nil, 0,
	)
	if !status.IsSuccess() {
		return "", common.NewCoreError(common.EErrorKind.PathResolve(), v.letter, status.Error())
	}
	defer windows.CloseHandle(windows.Handle(fileHandle))

	buf := make([]byte, 4096)
	var rLen = uint32(len(buf))
	st := ntdll.CallWithExpandingBuffer(func() ntdll.NtStatus {
		var stat ntdll.IoStatusBlock
		return ntdll.NtQueryInformationFile(fileHandle, &stat, &buf[0], uint32(len(buf)), ntdll.FileNameInformation)
	}, &buf, &rLen)
	if !st.IsSuccess() {
		return "", common.NewCoreError(common.EErrorKind.PathResolve(), v.letter, st.Error())
	}

	nameLen := binary.LittleEndian.Uint32(buf[:4])
	nameUTF16 := make([]uint16, nameLen/2)
	for i := range nameUTF16 {
		nameUTF16[i] = binary.LittleEndian.Uint16(buf[4+i*2 : 6+i*2])
	}
	raw := windows.UTF16ToString(nameUTF16)

	// raw looks like `\SomeDir\SomeFile.txt`, volume-relative; drop the
	// leading backslash and reattach this handle's drive letter.
	raw = strings.TrimPrefix(raw, `\`)
	return string(v.letter) + `:\` + raw, nil
}
