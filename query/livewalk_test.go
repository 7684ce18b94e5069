package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftcode/volsearch/pathresolve"
)

func TestLiveWalk_FindsMatchingFilesAndSkipsExcludedDirs(t *testing.T) {
	a := assert.New(t)

	root := t.TempDir()
	a.NoError(os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))
	a.NoError(os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("x"), 0o644))
	a.NoError(os.WriteFile(filepath.Join(root, "report.txt"), []byte("hello"), 0o644))
	a.NoError(os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	a.NoError(os.WriteFile(filepath.Join(root, "docs", "report_final.txt"), []byte("hello world"), 0o644))

	var found []string
	err := LiveWalk(context.Background(), root, pathresolve.DefaultExclusionPolicy(), Filters{SizeMin: -1, SizeMax: -1, NamePattern: "report"}, func(r LiveWalkResult) bool {
		found = append(found, r.Name)
		return true
	})

	a.NoError(err)
	a.ElementsMatch([]string{"report.txt", "report_final.txt"}, found)
}

func TestLiveWalk_SinkFalseStopsWalkEarly(t *testing.T) {
	a := assert.New(t)

	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		a.NoError(os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	count := 0
	err := LiveWalk(context.Background(), root, pathresolve.DefaultExclusionPolicy(), Filters{SizeMin: -1, SizeMax: -1}, func(r LiveWalkResult) bool {
		count++
		return count < 2
	})

	a.NoError(err)
	a.Equal(2, count)
}
