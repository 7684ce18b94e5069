package mft

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildUSNRecordV2 constructs one packed USN_RECORD_V2 entry with the
// fields parseRecords reads, padding unused fields with zeros.
func buildUSNRecordV2(fileRef, parentRef uint64, attrs uint32, name string) []byte {
	nameUTF16 := make([]uint16, 0, len(name))
	for _, r := range name {
		nameUTF16 = append(nameUTF16, uint16(r))
	}
	nameBytes := make([]byte, len(nameUTF16)*2)
	for i, v := range nameUTF16 {
		binary.LittleEndian.PutUint16(nameBytes[i*2:], v)
	}

	const nameOffset = 60
	recordLength := nameOffset + len(nameBytes)
	buf := make([]byte, recordLength)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(recordLength))
	binary.LittleEndian.PutUint64(buf[8:16], fileRef)
	binary.LittleEndian.PutUint64(buf[16:24], parentRef)
	binary.LittleEndian.PutUint32(buf[52:56], attrs)
	binary.LittleEndian.PutUint16(buf[56:58], uint16(len(nameBytes)))
	binary.LittleEndian.PutUint16(buf[58:60], uint16(nameOffset))
	copy(buf[nameOffset:], nameBytes)
	return buf
}

func TestParseRecords_SkipsDotEntries(t *testing.T) {
	a := assert.New(t)

	var buf []byte
	buf = append(buf, buildUSNRecordV2(5, 5, fileAttributeDirectory, ".")...)
	buf = append(buf, buildUSNRecordV2(5, 5, fileAttributeDirectory, "..")...)
	buf = append(buf, buildUSNRecordV2(42, 5, fileAttributeDirectory, "Documents")...)
	buf = append(buf, buildUSNRecordV2(43, 42, 0, "notes.txt")...)

	out := make(chan Record, 10)
	err := parseRecords(buf, out, context.Background())
	a.NoError(err)
	close(out)

	var got []Record
	for r := range out {
		got = append(got, r)
	}

	a.Len(got, 2)
	a.Equal("Documents", got[0].Name)
	a.True(got[0].IsDir)
	a.Equal(uint64(42), got[0].FileRef)
	a.Equal("notes.txt", got[1].Name)
	a.False(got[1].IsDir)
	a.Equal(uint64(42), got[1].ParentRef)
}

func TestParseRecords_SkipsReservedAndDotfileNames(t *testing.T) {
	a := assert.New(t)

	var buf []byte
	buf = append(buf, buildUSNRecordV2(1, 5, fileAttributeDirectory, "$MFT")...)
	buf = append(buf, buildUSNRecordV2(2, 5, fileAttributeDirectory, "$LogFile")...)
	buf = append(buf, buildUSNRecordV2(3, 5, 0, "$Bitmap")...)
	buf = append(buf, buildUSNRecordV2(4, 5, 0, ".gitignore")...)
	buf = append(buf, buildUSNRecordV2(42, 5, fileAttributeDirectory, "Documents")...)

	out := make(chan Record, 10)
	err := parseRecords(buf, out, context.Background())
	a.NoError(err)
	close(out)

	var got []Record
	for r := range out {
		got = append(got, r)
	}

	a.Len(got, 1)
	a.Equal("Documents", got[0].Name)
}

func TestParseRecords_MasksHighBitsOfFileReference(t *testing.T) {
	a := assert.New(t)

	// High 16 bits are a reuse/sequence counter and must be masked off.
	fileRefWithSequence := uint64(0xBEEF)<<48 | 100
	buf := buildUSNRecordV2(fileRefWithSequence, 5, 0, "file.bin")

	out := make(chan Record, 1)
	a.NoError(parseRecords(buf, out, context.Background()))
	close(out)

	r := <-out
	a.Equal(uint64(100), r.FileRef)
}

func TestParseRecords_StopsOnTruncatedBuffer(t *testing.T) {
	a := assert.New(t)

	buf := buildUSNRecordV2(1, 5, 0, "ok.txt")
	truncated := buf[:len(buf)-2]

	out := make(chan Record, 1)
	a.NoError(parseRecords(truncated, out, context.Background()))
	close(out)

	_, ok := <-out
	a.False(ok, "truncated record should not be parsed out")
}
