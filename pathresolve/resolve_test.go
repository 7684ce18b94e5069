package pathresolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/mft"
)

func TestResolve_BuildsPathsFromRoot(t *testing.T) {
	a := assert.New(t)

	records := []mft.Record{
		{FileRef: 10, ParentRef: rootFileReference, Name: "Users", IsDir: true},
		{FileRef: 11, ParentRef: 10, Name: "alice", IsDir: true},
		{FileRef: 12, ParentRef: 11, Name: "report.docx", IsDir: false},
	}

	result := Resolve(records, 'C', DefaultExclusionPolicy(), nil)

	a.Equal(`C:\Users`, result[10].Path)
	a.Equal(`C:\Users\alice`, result[11].Path)
	a.Equal(`C:\Users\alice\report.docx`, result[12].Path)
	a.False(result[12].IsDir)
}

func TestResolve_PrunesSkippedDirectorySubtrees(t *testing.T) {
	a := assert.New(t)

	records := []mft.Record{
		{FileRef: 10, ParentRef: rootFileReference, Name: "node_modules", IsDir: true},
		{FileRef: 11, ParentRef: 10, Name: "some-package", IsDir: true},
		{FileRef: 12, ParentRef: 11, Name: "index.js", IsDir: false},
	}

	result := Resolve(records, 'C', DefaultExclusionPolicy(), nil)

	a.Empty(result, "everything under an excluded directory must be dropped, not just the directory itself")
}

func TestResolve_SkipsExcludedExtensions(t *testing.T) {
	a := assert.New(t)

	records := []mft.Record{
		{FileRef: 10, ParentRef: rootFileReference, Name: "app.dll", IsDir: false},
		{FileRef: 11, ParentRef: rootFileReference, Name: "app.exe", IsDir: false},
	}

	result := Resolve(records, 'C', DefaultExclusionPolicy(), nil)

	_, hasDLL := result[10]
	_, hasEXE := result[11]
	a.False(hasDLL)
	a.True(hasEXE)
}

func TestResolve_RespectsAllowedPaths(t *testing.T) {
	a := assert.New(t)

	records := []mft.Record{
		{FileRef: 10, ParentRef: rootFileReference, Name: "Users", IsDir: true},
		{FileRef: 11, ParentRef: 10, Name: "doc.txt", IsDir: false},
		{FileRef: 20, ParentRef: rootFileReference, Name: "Windows", IsDir: true},
	}

	policy := ExclusionPolicy{AllowedPaths: []string{`C:\Users`}}
	result := Resolve(records, 'C', policy, nil)

	_, hasUsers := result[10]
	_, hasWindowsDir := result[20]
	a.True(hasUsers)
	a.False(hasWindowsDir, "Windows is excluded by name anyway, but must also fail the allow-list")
}

func TestResolve_FillsAttributesViaLookup(t *testing.T) {
	a := assert.New(t)

	records := []mft.Record{
		{FileRef: 10, ParentRef: rootFileReference, Name: "data.bin", IsDir: false},
	}

	fixedTime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	lookup := func(path string) (int64, time.Time, error) {
		a.Equal(`C:\data.bin`, path)
		return 4096, fixedTime, nil
	}

	result := Resolve(records, 'C', DefaultExclusionPolicy(), lookup)

	a.Equal(int64(4096), result[10].Size)
	a.True(fixedTime.Equal(result[10].ModTime))
}
