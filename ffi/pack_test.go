package ffi

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/changetracker"
	"github.com/riftcode/volsearch/mft"
	"github.com/riftcode/volsearch/searchindex"
)

func TestEncodeScanItems_RoundTripsHeaderFields(t *testing.T) {
	a := assert.New(t)

	items := []ScanItem{
		{IsDir: false, Name: "invoice.pdf", Path: `C:\Docs\invoice.pdf`, Parent: `C:\Docs`, Ext: "pdf", Size: 2048, MTimeUnix: 1700000000},
		{IsDir: true, Name: "Docs", Path: `C:\Docs`, Parent: `C:\`, Ext: "", Size: 0, MTimeUnix: 0},
	}

	buf := EncodeScanItems(items)
	a.NotEmpty(buf)

	// Trailing count is the last 8 bytes.
	count := binary.LittleEndian.Uint64(buf[len(buf)-8:])
	a.Equal(uint64(2), count)

	// First record's header.
	a.Equal(byte(0), buf[0]) // is_dir
	nameLen := binary.LittleEndian.Uint16(buf[1:3])
	a.Equal(uint16(len("invoice.pdf")), nameLen)
	pathLen := binary.LittleEndian.Uint16(buf[3:5])
	a.Equal(uint16(len(`C:\Docs\invoice.pdf`)), pathLen)
	parentLen := binary.LittleEndian.Uint16(buf[5:7])
	a.Equal(uint16(len(`C:\Docs`)), parentLen)
	extLen := buf[7]
	a.Equal(byte(len("pdf")), extLen)
	size := binary.LittleEndian.Uint64(buf[8:16])
	a.Equal(uint64(2048), size)
	mtimeBits := binary.LittleEndian.Uint64(buf[16:24])
	a.Equal(1700000000.0, math.Float64frombits(mtimeBits))
}

func TestEncodeSearchResults_DerivesParentAndExtension(t *testing.T) {
	a := assert.New(t)

	items := []searchindex.IndexedItem{
		{Name: "report.docx", Path: `C:\Work\report.docx`, Size: 100, ModTime: time.Unix(1000, 0)},
	}
	buf := EncodeSearchResults(items)

	count := binary.LittleEndian.Uint64(buf[len(buf)-8:])
	a.Equal(uint64(1), count)

	nameLen := binary.LittleEndian.Uint16(buf[1:3])
	a.Equal(uint16(len("report.docx")), nameLen)
	extLen := buf[7]
	a.Equal(byte(len("docx")), extLen)
}

func TestEncodeMFTRecords_PacksFileAndParentRefs(t *testing.T) {
	a := assert.New(t)

	records := []mft.Record{
		{FileRef: 42, ParentRef: 5, Name: "foo.txt", IsDir: false},
	}
	buf := EncodeMFTRecords(records)

	count := binary.LittleEndian.Uint64(buf[len(buf)-8:])
	a.Equal(uint64(1), count)

	fileRef := binary.LittleEndian.Uint64(buf[0:8])
	a.Equal(uint64(42), fileRef)
	parentRef := binary.LittleEndian.Uint64(buf[8:16])
	a.Equal(uint64(5), parentRef)
	a.Equal(byte(0), buf[16])
	nameLen := binary.LittleEndian.Uint16(buf[17:19])
	a.Equal(uint16(len("foo.txt")), nameLen)
}

func TestEncodeChangeList_PacksActionAndUsn(t *testing.T) {
	a := assert.New(t)

	events := []changetracker.ChangeEvent{
		{Action: changetracker.EChangeAction.Add(), FileRef: 7, ParentRef: 5, Usn: 99, Name: "new.txt", IsDir: false},
	}
	buf := EncodeChangeList(events)

	count := binary.LittleEndian.Uint64(buf[len(buf)-8:])
	a.Equal(uint64(1), count)
	a.Equal(byte(changetracker.EChangeAction.Add()), buf[0])
	fileRef := binary.LittleEndian.Uint64(buf[1:9])
	a.Equal(uint64(7), fileRef)
	usn := int64(binary.LittleEndian.Uint64(buf[17:25]))
	a.Equal(int64(99), usn)
}
