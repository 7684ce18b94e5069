package changetracker

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/searchindex"
	"github.com/riftcode/volsearch/volio"
)

func TestClassifyReason(t *testing.T) {
	a := assert.New(t)
	a.Equal(EChangeAction.Add(), classifyReason(reasonFileCreate))
	a.Equal(EChangeAction.Add(), classifyReason(reasonRenameNewName))
	a.Equal(EChangeAction.Remove(), classifyReason(reasonFileDelete))
	a.Equal(EChangeAction.Remove(), classifyReason(reasonRenameOldName))
	a.Equal(EChangeAction.UpdateMetadata(), classifyReason(reasonDataExtend))
	a.Equal(EChangeAction.Ignore(), classifyReason(reasonClose))
	a.Equal(EChangeAction.Ignore(), classifyReason(0))
}

func buildJournalRecord(usn int64, reason, attrs uint32, fileRef, parentRef uint64, name string) []byte {
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
	binary.LittleEndian.PutUint64(buf[24:32], uint64(usn))
	binary.LittleEndian.PutUint32(buf[40:44], reason)
	binary.LittleEndian.PutUint32(buf[52:56], attrs)
	binary.LittleEndian.PutUint16(buf[56:58], uint16(len(nameBytes)))
	binary.LittleEndian.PutUint16(buf[58:60], uint16(nameOffset))
	copy(buf[nameOffset:], nameBytes)
	return buf
}

func TestParseJournalRecords(t *testing.T) {
	a := assert.New(t)

	var buf []byte
	buf = append(buf, buildJournalRecord(100, reasonFileCreate, fileAttributeDirectory, 10, 5, "NewFolder")...)
	buf = append(buf, buildJournalRecord(101, reasonFileDelete, 0, 11, 5, "gone.txt")...)

	records := parseJournalRecords(buf)
	a.Len(records, 2)
	a.Equal(int64(100), records[0].Usn)
	a.True(records[0].IsDir)
	a.Equal("gone.txt", records[1].Name)
}

func TestApplyRecords_DedupsByActionFileRefAndUSN(t *testing.T) {
	a := assert.New(t)

	idx := searchindex.New()
	p := &Poller{letter: 'C', index: idx, dirs: newDirPathCache()}
	p.dirs.Set(5, `C:\`)

	records := []journalRecord{
		{Usn: 100, Reason: reasonFileCreate, FileRef: 20, ParentRef: 5, Name: "file.txt"},
		{Usn: 100, Reason: reasonFileCreate, FileRef: 20, ParentRef: 5, Name: "file.txt"}, // exact duplicate
	}
	p.applyRecords(records)

	a.Equal(1, idx.ItemCount())
}

func TestApplyRecords_AddThenRemove(t *testing.T) {
	a := assert.New(t)

	idx := searchindex.New()
	p := &Poller{letter: 'C', index: idx, dirs: newDirPathCache()}
	p.dirs.Set(5, `C:\`)

	p.applyRecords([]journalRecord{
		{Usn: 1, Reason: reasonFileCreate, FileRef: 20, ParentRef: 5, Name: "file.txt"},
	})
	a.Equal(1, idx.ItemCount())

	p.applyRecords([]journalRecord{
		{Usn: 2, Reason: reasonFileDelete, FileRef: 20, ParentRef: 5, Name: "file.txt"},
	})
	a.Equal(0, idx.ItemCount())
}

func TestApplyRecords_FallsBackToResolvePathByFileIDForUnknownParent(t *testing.T) {
	a := assert.New(t)

	idx := searchindex.New()
	vol := &fakeVolumeHandle{resolvedPath: `C:\Orphans\orphan.txt`}
	p := &Poller{letter: 'C', vol: vol, index: idx, dirs: newDirPathCache()}

	p.applyRecords([]journalRecord{
		{Usn: 1, Reason: reasonFileCreate, FileRef: 20, ParentRef: 999, Name: "orphan.txt"},
	})
	a.Equal(1, idx.ItemCount())
	items := idx.SearchContains("orphan")
	a.Len(items, 1)
	a.Equal(`C:\Orphans\orphan.txt`, items[0].Path)
}

func TestApplyRecords_SkipsEventWhenResolvePathByFileIDFails(t *testing.T) {
	a := assert.New(t)

	idx := searchindex.New()
	vol := &fakeVolumeHandle{resolveErr: errors.New("file not found")}
	p := &Poller{letter: 'C', vol: vol, index: idx, dirs: newDirPathCache(), logger: common.NopLogger}

	p.applyRecords([]journalRecord{
		{Usn: 1, Reason: reasonFileCreate, FileRef: 20, ParentRef: 999, Name: "orphan.txt"},
	})
	a.Equal(0, idx.ItemCount())
}

// fakeVolumeHandle scripts a fixed sequence of journal/read responses so
// Poller.poll can be exercised without a real Windows volume.
type fakeVolumeHandle struct {
	journalID     uint64
	readResponses [][]byte
	readCallCount int

	resolvedPath string
	resolveErr   error
}

func (f *fakeVolumeHandle) Letter() byte { return 'C' }
func (f *fakeVolumeHandle) Close() error { return nil }

func (f *fakeVolumeHandle) QueryJournal() (volio.JournalData, error) {
	return volio.JournalData{JournalID: f.journalID}, nil
}

func (f *fakeVolumeHandle) EnumerateUSNData(uint64, []byte) (uint64, int, error) {
	return 0, 0, nil
}

func (f *fakeVolumeHandle) ReadUSNJournal(startUSN int64, reasonMask uint32, buf []byte) (int64, int, error) {
	if f.readCallCount >= len(f.readResponses) {
		return startUSN, 0, nil
	}
	resp := f.readResponses[f.readCallCount]
	f.readCallCount++
	if len(resp) == 0 {
		return startUSN, 0, nil
	}
	n := copy(buf, resp)
	nextUSN := int64(binary.LittleEndian.Uint64(resp[:8]))
	return nextUSN, n, nil
}

func (f *fakeVolumeHandle) ResolvePathByFileID(uint64) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.resolvedPath, nil
}

func TestPoll_AppliesOneBatchAndAdvancesCursor(t *testing.T) {
	a := assert.New(t)

	rec := buildJournalRecord(50, reasonFileCreate, 0, 30, 5, "new.txt")
	var resp []byte
	nextUSNBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nextUSNBytes, 51)
	resp = append(resp, nextUSNBytes...)
	resp = append(resp, rec...)

	vol := &fakeVolumeHandle{journalID: 777, readResponses: [][]byte{resp}}
	idx := searchindex.New()
	p := New('C', vol, idx, nil)
	a.NoError(p.Resume(0, map[uint64]string{5: `C:\`}))

	a.NoError(p.poll(context.Background()))
	a.Equal(1, idx.ItemCount())
	a.Equal(int64(51), p.lastUSN)
}

func TestPoll_JournalIDChangeTriggersReset(t *testing.T) {
	a := assert.New(t)

	vol := &fakeVolumeHandle{journalID: 1}
	idx := searchindex.New()
	p := New('C', vol, idx, nil)
	a.NoError(p.Resume(0, nil))

	vol.journalID = 2 // simulate the journal being recreated
	resetCalled := false
	p.OnReset = func(ctx context.Context) (int64, map[uint64]string, error) {
		resetCalled = true
		return 10, map[uint64]string{5: `C:\`}, nil
	}

	a.NoError(p.poll(context.Background()))
	a.True(resetCalled)
	a.Equal(int64(10), p.lastUSN)
}
