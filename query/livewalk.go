package query

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/riftcode/volsearch/pathresolve"
)

// maxWalkDepth bounds the live fallback walk — unlike the MFT-backed path,
// a plain directory walk has no volume-wide shortcut, so a depth cap keeps
// a pathological directory tree from running unbounded.
const maxWalkDepth = 20

// LiveWalkResult is one matching entry found by the filesystem fallback.
type LiveWalkResult struct {
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// LiveWalk walks root looking for entries matching filters, for use when
// no MFT-backed index exists yet for a volume (spec.md §4.6's live
// enumeration fallback). Structured the way the teacher's
// WalkWithSymlinks walks with a callback and a filter list rather than
// collecting results up front (cmd/zc_traverser_local.go's
// Traverse/WalkWithSymlinks), generalized from "enumerate for transfer" to
// "enumerate for search" and reusing pathresolve.ExclusionPolicy instead
// of azcopy's include/exclude transfer filters.
func LiveWalk(ctx context.Context, root string, policy pathresolve.ExclusionPolicy, filters Filters, sink func(LiveWalkResult) bool) error {
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// A single unreadable entry (permission denied, vanished
			// mid-walk) doesn't abort the whole walk — just skip it.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if d.IsDir() {
			if path != root && (policy.ShouldSkipDir(d.Name()) || depth > maxWalkDepth) {
				return filepath.SkipDir
			}
			return nil
		}

		// Directories below root were already pruned above, so only the
		// file's own name is checked against the skip-dir rules here, not
		// the directories above root; an allow-list, when set, is checked
		// against the full path the same way Resolve checks it.
		if policy.ShouldSkipDir(d.Name()) {
			return nil
		}
		if len(policy.AllowedPaths) > 0 && policy.ShouldSkipPath(path) {
			return nil
		}
		ext :=strings.TrimPrefix(filepath.Ext(d.Name()), ".")
		if policy.ShouldSkipExt(ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if !filters.Match(d.Name(), ext, info.Size(), false, info.ModTime(), path) {
			return nil
		}

		result := LiveWalkResult{
			Path:    path,
			Name:    d.Name(),
			IsDir:   false,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if !sink(result) {
			return filepath.SkipAll
		}
		return nil
	})
}
