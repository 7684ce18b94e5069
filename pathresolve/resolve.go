package pathresolve

import (
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftcode/volsearch/mft"
)

// rootFileReference is the file reference number NTFS always assigns the
// volume root directory (mft.rs relies on the same constant to seed its
// BFS from "{drive}:\\").
const rootFileReference = 5

// ResolvedPath is one item's reconstructed path plus the attributes
// build_paths/get_file_info attach in original_source/mft.rs.
type ResolvedPath struct {
	FileRef   uint64
	ParentRef uint64
	Path      string
	IsDir     bool
	Size      int64
	ModTime   time.Time
}

// AttrLookup fetches size/mtime for a resolved file path; production code
// passes os.Stat-backed LookupAttrsOS, tests pass a fake.
type AttrLookup func(path string) (size int64, modTime time.Time, err error)

// Resolve reconstructs full paths for every record, BFS-walking from the
// volume root the way mft.rs's build_paths does, applying policy to prune
// excluded subtrees, then resolving file (not directory) attributes over a
// bounded worker pool — mirroring the teacher's bounded-concurrency
// enumeration helpers (traverser/'s errgroup-based fan-out).
func Resolve(records []mft.Record, letter byte, policy ExclusionPolicy, lookup AttrLookup) map[uint64]ResolvedPath {
	byRef := make(map[uint64]mft.Record, len(records))
	children := make(map[uint64][]uint64)
	for _, r := range records {
		byRef[r.FileRef] = r
		children[r.ParentRef] = append(children[r.ParentRef], r.FileRef)
	}

	rootPath := string(letter) + `:\`
	paths := make(map[uint64]string, len(records)+1)
	paths[rootFileReference] = rootPath

	// BFS assigns each node's path from its already-resolved parent,
	// pruning any subtree whose directory name the policy excludes —
	// children of a skipped directory are never visited, so their
	// descendants never get a path (and are implicitly dropped).
	queue := []uint64{rootFileReference}
	for len(queue) > 0 {
		parentRef := queue[0]
		queue = queue[1:]
		parentPath := paths[parentRef]

		for _, childRef := range children[parentRef] {
			rec := byRef[childRef]
			childPath := joinPath(parentPath, rec.Name)
			if rec.IsDir && policy.ShouldSkipDir(rec.Name) {
				continue
			}
			if policy.ShouldSkipPath(childPath) {
				continue
			}
			paths[childRef] = childPath
			if rec.IsDir {
				queue = append(queue, childRef)
			}
		}
	}

	result := make(map[uint64]ResolvedPath, len(paths))
	var fileRefs []uint64
	for ref, p := range paths {
		if ref == rootFileReference {
			continue
		}
		rec := byRef[ref]
		if policy.ShouldSkipExt(extOf(rec.Name)) && !rec.IsDir {
			continue
		}
		result[ref] = ResolvedPath{
			FileRef:   ref,
			ParentRef: rec.ParentRef,
			Path:      p,
			IsDir:     rec.IsDir,
		}
		if !rec.IsDir {
			fileRefs = append(fileRefs, ref)
		}
	}

	if lookup != nil {
		resolveAttrs(result, fileRefs, lookup)
	}
	return result
}

// resolveAttrs fills in Size/ModTime for every file (not directory) entry,
// bounded to 4×NumCPU (at least 4) concurrent lookups via errgroup.SetLimit — the same
// shape the teacher uses to bound concurrent enumeration work, sized for
// I/O-bound syscalls rather than unbounded goroutine-per-file fan-out.
func resolveAttrs(result map[uint64]ResolvedPath, fileRefs []uint64, lookup AttrLookup) {
	limit := runtime.NumCPU() * 4
	if limit < 4 {
		limit = 4
	}

	var g errgroup.Group
	g.SetLimit(limit)

	type attrResult struct {
		ref     uint64
		size    int64
		modTime time.Time
	}
	results := make(chan attrResult, len(fileRefs))

	for _, ref := range fileRefs {
		ref := ref
		entry := result[ref]
		g.Go(func() error {
			size, modTime, err := lookup(entry.Path)
			if err != nil {
				// A file can legitimately vanish between MFT enumeration
				// and stat (deleted, moved); skip attributes rather than
				// fail the whole build.
				return nil
			}
			results <- attrResult{ref: ref, size: size, modTime: modTime}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	for r := range results {
		entry := result[r.ref]
		entry.Size = r.size
		entry.ModTime = r.modTime
		result[r.ref] = entry
	}
}

// LookupAttrsOS is the production AttrLookup, backed by os.Stat.
func LookupAttrsOS(path string) (int64, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, err
	}
	return info.Size(), info.ModTime(), nil
}

func joinPath(parent, name string) string {
	if len(parent) > 0 && parent[len(parent)-1] == '\\' {
		return parent + name
	}
	return parent + `\` + name
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
		if name[i] == '\\' || name[i] == '/' {
			break
		}
	}
	return ""
}
