// Package mft enumerates every record in a volume's Master File Table via
// FSCTL_ENUM_USN_DATA, streaming parsed Record values to the caller. The
// buffer-walking loop is a direct port of original_source/mft.rs's
// scan_mft, restructured around a channel the way the teacher's local
// traverser streams *ObjectInfo instead of returning one giant slice
// (cmd/zc_traverser_local.go).
package mft

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/volio"
)

// fileAttributeDirectory is FILE_ATTRIBUTE_DIRECTORY, ported from mft.rs.
const fileAttributeDirectory = 0x10

// fileReferenceMask keeps only the low 48 bits of a file reference number:
// the high 16 bits are a sequence/reuse counter that must not be part of a
// record's identity (mft.rs masks both file_ref and parent_ref this way).
const fileReferenceMask = 0x0000FFFFFFFFFFFF

// Record is one parsed USN_RECORD_V2 entry from the MFT enumeration.
type Record struct {
	FileRef   uint64
	ParentRef uint64
	Name      string
	IsDir     bool
}

// Enumerate streams every MFT record on vol. The returned error channel
// receives at most one error and is then closed; the record channel is
// always closed when enumeration ends, successfully or not.
func Enumerate(ctx context.Context, vol volio.VolumeHandle, letter byte) (<-chan Record, <-chan error) {
	records := make(chan Record, 256)
	errc := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errc)

		buf := make([]byte, volio.EnumBufferSize)
		var startFRN uint64

		for {
			select {
			case <-ctx.Done():
				errc <- errors.Wrap(ErrEnumerationAborted, ctx.Err().Error())
				return
			default:
			}

			nextFRN, n, err := vol.EnumerateUSNData(startFRN, buf)
			if err != nil {
				errc <- common.NewCoreError(common.EErrorKind.EnumerationAborted(), letter, err)
				return
			}
			if n == 0 {
				return
			}

			if err := parseRecords(buf[8:n], records, ctx); err != nil {
				errc <- errors.Wrap(ErrEnumerationAborted, err.Error())
				return
			}

			if nextFRN == startFRN {
				// No forward progress; treat as end of enumeration rather
				// than spin forever on a buggy driver response.
				return
			}
			startFRN = nextFRN
		}
	}()

	return records, errc
}

// parseRecords walks one buffer's worth of packed USN_RECORD_V2 entries,
// the same offset-advancing loop as mft.rs's scan_mft inner loop.
func parseRecords(buf []byte, out chan<- Record, ctx context.Context) error {
	offset := 0
	for offset < len(buf) {
		if offset+60 > len(buf) {
			break
		}
		recordLength := binary.LittleEndian.Uint32(buf[offset:])
		if recordLength == 0 || int(recordLength) > len(buf)-offset {
			break
		}
		record := buf[offset : offset+int(recordLength)]

		fileRef := binary.LittleEndian.Uint64(record[8:16]) & fileReferenceMask
		parentRef := binary.LittleEndian.Uint64(record[16:24]) & fileReferenceMask
		attrs := binary.LittleEndian.Uint32(record[52:56])
		nameLen := binary.LittleEndian.Uint16(record[56:58])
		nameOffset := binary.LittleEndian.Uint16(record[58:60])

		name := decodeUTF16Name(record, int(nameOffset), int(nameLen))

		// mft.rs skips the two pseudo-entries "." and ".." that NTFS
		// surfaces for every directory's self/parent links, plus every
		// reserved metadata file ($MFT, $LogFile, $Bitmap, $Secure, ...) and
		// dotfile, identified by leading byte rather than an exact-name
		// allowlist.
		if name != "" && name[0] != '$' && name[0] != '.' {
			select {
			case out <- Record{
				FileRef:   fileRef,
				ParentRef: parentRef,
				Name:      name,
				IsDir:     attrs&fileAttributeDirectory != 0,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		offset += int(recordLength)
	}
	return nil
}

func decodeUTF16Name(record []byte, offset, byteLen int) string {
	if offset < 0 || byteLen < 0 || offset+byteLen > len(record) {
		return ""
	}
	u16 := make([]uint16, byteLen/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(record[offset+i*2 : offset+i*2+2])
	}
	return utf16ToString(u16)
}

// utf16ToString avoids importing golang.org/x/sys/windows in a package
// that must also build non-Windows (for the `ffi`/`searchindex` tests);
// it's a plain UTF-16LE decode, equivalent to windows.UTF16ToString.
func utf16ToString(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			s = s[:i]
			break
		}
	}
	return string(utf16Decode(s))
}

func utf16Decode(s []uint16) []rune {
	runes := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		if r >= 0xD800 && r < 0xDC00 && i+1 < len(s) {
			r2 := rune(s[i+1])
			if r2 >= 0xDC00 && r2 < 0xE000 {
				runes = append(runes, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		runes = append(runes, r)
	}
	return runes
}

// ErrEnumerationAborted is returned (wrapped) when the context is canceled
// mid-enumeration.
var ErrEnumerationAborted = errors.New("mft enumeration aborted")
