package searchindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleItems() []IndexedItem {
	return []IndexedItem{
		{Name: "report.docx", Path: `C:\Docs\report.docx`, FileRef: 1, ParentRef: 10, Size: 2048},
		{Name: "Report_Final.docx", Path: `C:\Docs\Report_Final.docx`, FileRef: 2, ParentRef: 10, Size: 4096},
		{Name: "notes.txt", Path: `C:\Docs\notes.txt`, FileRef: 3, ParentRef: 10, Size: 128},
		{Name: "photo.jpg", Path: `C:\Pictures\photo.jpg`, FileRef: 4, ParentRef: 11, Size: 999999},
	}
}

func TestBuildAndItemCount(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())
	a.Equal(4, idx.ItemCount())
}

func TestSearchPrefix_CaseInsensitive(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())

	results := idx.SearchPrefix("report")
	a.Len(results, 2)
}

func TestSearchContains(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())

	results := idx.SearchContains("final")
	a.Len(results, 1)
	a.Equal("Report_Final.docx", results[0].Name)
}

func TestSearchByExtension(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())

	results := idx.SearchByExtension("docx")
	a.Len(results, 2)

	upper := idx.SearchByExtension("DOCX")
	a.Len(upper, 2, "extension lookup must be case-insensitive")
}

func TestRemoveByRef_TombstonesAndExcludesFromSearch(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())

	removed := idx.RemoveByRef(3)
	a.True(removed)
	a.Equal(3, idx.ItemCount())

	results := idx.SearchContains("notes")
	a.Empty(results, "tombstoned items must never reappear in search results")

	a.False(idx.RemoveByRef(3), "removing an already-tombstoned ref reports no-op")
}

func TestRemoveByPath(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())

	a.True(idx.RemoveByPath(`C:\Pictures\photo.jpg`))
	a.Equal(3, idx.ItemCount())
	a.False(idx.RemoveByPath(`C:\Pictures\does-not-exist.jpg`))
}

func TestAdd_UpdatesExistingFileRefInPlace(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())

	idx.Add(IndexedItem{Name: "notes-renamed.txt", Path: `C:\Docs\notes-renamed.txt`, FileRef: 3, ParentRef: 10, Size: 256})

	a.Equal(4, idx.ItemCount(), "updating an existing file ref must not grow the item count")
	results := idx.SearchContains("renamed")
	a.Len(results, 1)
	a.Equal(int64(256), results[0].Size)

	stale := idx.SearchContains("notes.txt")
	a.Empty(stale)
}

func TestSearchByModTimeRange(t *testing.T) {
	a := assert.New(t)
	idx := New()

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	idx.Build([]IndexedItem{
		{Name: "old.txt", Path: `C:\a\old.txt`, FileRef: 1, ModTime: older},
		{Name: "new.txt", Path: `C:\a\new.txt`, FileRef: 2, ModTime: newer},
	})

	results := idx.SearchByModTimeRange(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	a.Len(results, 1)
	a.Equal("new.txt", results[0].Name)
}

func TestSaveLoadRoundTrip_PreservesLiveItemsOnly(t *testing.T) {
	a := assert.New(t)
	idx := New()
	idx.Build(sampleItems())
	idx.RemoveByRef(4)

	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	a.NoError(idx.Save(path, 0xABCD, 12345))
	a.False(idx.IsDirty())

	reloaded := New()
	journalID, lastUSN, err := reloaded.Load(path)
	a.NoError(err)
	a.Equal(uint64(0xABCD), journalID)
	a.Equal(int64(12345), lastUSN)
	a.Equal(3, reloaded.ItemCount())

	_, err = os.Stat(path)
	a.NoError(err)

	results := reloaded.SearchPrefix("report")
	a.Len(results, 2)
}

func TestIsDirty_TracksUnsavedChanges(t *testing.T) {
	a := assert.New(t)
	idx := New()
	a.False(idx.IsDirty())

	idx.Add(sampleItems()[0])
	a.True(idx.IsDirty())
}
