// Package searchindex is the concurrent, append-only, tombstoned search
// index described in spec.md §4.3, ported from
// original_source/search_index.rs's SearchIndex/IndexedItem.
package searchindex

import (
	"strings"
	"sync"
	"time"
)

// IndexedItem is one file or directory entry. NameLower is derived from
// Name and recomputed on Load rather than persisted, mirroring
// search_index.rs's `#[serde(skip)]` on name_lower.
type IndexedItem struct {
	Name      string
	NameLower string
	Path      string
	FileRef   uint64
	ParentRef uint64
	Size      int64
	IsDir     bool
	ModTime   time.Time

	// deleted marks a tombstoned slot: cleared of identifying data but
	// kept in place so every other index's stored vector position stays
	// valid, matching search_index.rs's remove_file (clears name/path/size
	// rather than compacting the slice).
	deleted bool
}

// SearchIndex holds one volume's indexed items plus the auxiliary
// structures used to answer queries quickly. The four guarded structures
// (items, file-ref map, extension map, name trie) are always locked in
// that fixed order on any path that touches more than one, to rule out
// lock-ordering deadlocks between concurrent add/remove/search calls.
type SearchIndex struct {
	itemsMu sync.RWMutex
	items   []IndexedItem

	fileRefMu sync.RWMutex
	fileRefMap map[uint64]int // FileRef -> index into items

	extMu     sync.RWMutex
	extIndex  map[string][]int // lower-cased extension (no dot) -> indices

	nameMu sync.RWMutex
	trie   *nameTrie

	dirtyMu sync.Mutex
	dirty   bool
}

// New returns an empty index ready to be populated via Add.
func New() *SearchIndex {
	return &SearchIndex{
		fileRefMap: make(map[uint64]int),
		extIndex:   make(map[string][]int),
		trie:       newNameTrie(),
	}
}

// Build replaces the index contents with items, the bulk-load path used
// right after mft.Enumerate + pathresolve.Resolve finish a fresh scan.
func (idx *SearchIndex) Build(items []IndexedItem) {
	idx.itemsMu.Lock()
	idx.fileRefMu.Lock()
	idx.extMu.Lock()
	idx.nameMu.Lock()
	defer idx.nameMu.Unlock()
	defer idx.extMu.Unlock()
	defer idx.fileRefMu.Unlock()
	defer idx.itemsMu.Unlock()

	idx.items = make([]IndexedItem, 0, len(items))
	idx.fileRefMap = make(map[uint64]int, len(items))
	idx.extIndex = make(map[string][]int)
	idx.trie = newNameTrie()

	for _, it := range items {
		idx.insertLocked(it)
	}
	idx.markDirty()
}

// Add appends a single new item, the incremental path the change tracker
// uses for CREATE events.
func (idx *SearchIndex) Add(item IndexedItem) {
	idx.itemsMu.Lock()
	idx.fileRefMu.Lock()
	idx.extMu.Lock()
	idx.nameMu.Lock()
	defer idx.nameMu.Unlock()
	defer idx.extMu.Unlock()
	defer idx.fileRefMu.Unlock()
	defer idx.itemsMu.Unlock()

	if existing, ok := idx.fileRefMap[item.FileRef]; ok {
		// Already present (e.g. a duplicate CREATE after a RENAME);
		// update in place instead of appending a second slot.
		idx.updateLocked(existing, item)
		idx.markDirty()
		return
	}
	idx.insertLocked(item)
	idx.markDirty()
}

// insertLocked assumes all four write locks are held.
func (idx *SearchIndex) insertLocked(item IndexedItem) {
	item.NameLower = strings.ToLower(item.Name)
	i := len(idx.items)
	idx.items = append(idx.items, item)
	idx.fileRefMap[item.FileRef] = i
	if ext := extOf(item.Name); ext != "" {
		idx.extIndex[ext] = append(idx.extIndex[ext], i)
	}
	idx.trie.Insert(item.NameLower, i)
}

func (idx *SearchIndex) updateLocked(i int, item IndexedItem) {
	old := idx.items[i]
	if oldExt := extOf(old.Name); oldExt != "" {
		idx.extIndex[oldExt] = removeIndex(idx.extIndex[oldExt], i)
	}
	if old.NameLower != "" {
		idx.trie.Remove(old.NameLower, i)
	}

	item.NameLower = strings.ToLower(item.Name)
	idx.items[i] = item
	if ext := extOf(item.Name); ext != "" {
		idx.extIndex[ext] = append(idx.extIndex[ext], i)
	}
	idx.trie.Insert(item.NameLower, i)
}

// RemoveByRef tombstones the item with this file reference, if present.
// Tombstoned slots never appear in subsequent search results.
func (idx *SearchIndex) RemoveByRef(fileRef uint64) bool {
	idx.itemsMu.Lock()
	idx.fileRefMu.Lock()
	idx.extMu.Lock()
	idx.nameMu.Lock()
	defer idx.nameMu.Unlock()
	defer idx.extMu.Unlock()
	defer idx.fileRefMu.Unlock()
	defer idx.itemsMu.Unlock()

	i, ok := idx.fileRefMap[fileRef]
	if !ok {
		return false
	}
	idx.tombstoneLocked(i)
	idx.markDirty()
	return true
}

// RemoveByPath tombstones the item at path, if present. Linear in item
// count, matching search_index.rs's remove_file_by_path (paths aren't
// separately indexed — only names, extensions, and file references are).
func (idx *SearchIndex) RemoveByPath(path string) bool {
	idx.itemsMu.Lock()
	idx.fileRefMu.Lock()
	idx.extMu.Lock()
	idx.nameMu.Lock()
	defer idx.nameMu.Unlock()
	defer idx.extMu.Unlock()
	defer idx.fileRefMu.Unlock()
	defer idx.itemsMu.Unlock()

	for i, it := range idx.items {
		if !it.deleted && it.Path == path {
			idx.tombstoneLocked(i)
			idx.markDirty()
			return true
		}
	}
	return false
}

func (idx *SearchIndex) tombstoneLocked(i int) {
	old := idx.items[i]
	if old.deleted {
		return
	}
	delete(idx.fileRefMap, old.FileRef)
	if ext := extOf(old.Name); ext != "" {
		idx.extIndex[ext] = removeIndex(idx.extIndex[ext], i)
	}
	if old.NameLower != "" {
		idx.trie.Remove(old.NameLower, i)
	}
	idx.items[i] = IndexedItem{deleted: true}
}

func (idx *SearchIndex) markDirty() {
	idx.dirtyMu.Lock()
	idx.dirty = true
	idx.dirtyMu.Unlock()
}

// IsDirty reports whether the index has unsaved changes since the last Save.
func (idx *SearchIndex) IsDirty() bool {
	idx.dirtyMu.Lock()
	defer idx.dirtyMu.Unlock()
	return idx.dirty
}

// ItemCount returns the number of live (non-tombstoned) items.
func (idx *SearchIndex) ItemCount() int {
	idx.itemsMu.RLock()
	defer idx.itemsMu.RUnlock()
	n := 0
	for _, it := range idx.items {
		if !it.deleted {
			n++
		}
	}
	return n
}

// SearchPrefix returns every live item whose lower-cased name starts with
// prefix (case-insensitive).
func (idx *SearchIndex) SearchPrefix(prefix string) []IndexedItem {
	idx.itemsMu.RLock()
	idx.nameMu.RLock()
	defer idx.nameMu.RUnlock()
	defer idx.itemsMu.RUnlock()

	indices := idx.trie.SearchPrefix(strings.ToLower(prefix))
	return idx.collectLive(indices)
}

// All returns every live item, unfiltered — used by query.Orchestrator
// when a query carries only attribute filters (ext:/size:/dm:/path:) and
// no free-text name pattern to narrow the scan with first.
func (idx *SearchIndex) All() []IndexedItem {
	idx.itemsMu.RLock()
	defer idx.itemsMu.RUnlock()

	out := make([]IndexedItem, 0, len(idx.items))
	for _, it := range idx.items {
		if !it.deleted {
			out = append(out, it)
		}
	}
	return out
}

// SearchContains returns every live item whose lower-cased name contains
// substr, scanning the full item vector — the same linear approach
// search_index.rs's search_contains takes (there, parallelized with
// rayon's par_iter; here, a single bounded pass is enough since this is
// typically invoked per-volume inside query.Orchestrator's own fan-out).
func (idx *SearchIndex) SearchContains(substr string) []IndexedItem {
	idx.itemsMu.RLock()
	defer idx.itemsMu.RUnlock()

	needle := strings.ToLower(substr)
	var out []IndexedItem
	for _, it := range idx.items {
		if !it.deleted && strings.Contains(it.NameLower, needle) {
			out = append(out, it)
		}
	}
	return out
}

// SearchByExtension returns every live item with this extension (no dot,
// case-insensitive).
func (idx *SearchIndex) SearchByExtension(ext string) []IndexedItem {
	idx.itemsMu.RLock()
	idx.extMu.RLock()
	defer idx.extMu.RUnlock()
	defer idx.itemsMu.RUnlock()

	indices := idx.extIndex[strings.ToLower(ext)]
	return idx.collectLive(indices)
}

// SearchByModTimeRange returns every live item whose ModTime falls in
// [from, to].
func (idx *SearchIndex) SearchByModTimeRange(from, to time.Time) []IndexedItem {
	idx.itemsMu.RLock()
	defer idx.itemsMu.RUnlock()

	var out []IndexedItem
	for _, it := range idx.items {
		if it.deleted {
			continue
		}
		if (it.ModTime.Equal(from) || it.ModTime.After(from)) && (it.ModTime.Equal(to) || it.ModTime.Before(to)) {
			out = append(out, it)
		}
	}
	return out
}

// collectLive assumes itemsMu is already held (at least for reading) by
// the caller; it filters indices down to the still-live items.
func (idx *SearchIndex) collectLive(indices []int) []IndexedItem {
	out := make([]IndexedItem, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(idx.items) && !idx.items[i].deleted {
			out = append(out, idx.items[i])
		}
	}
	return out
}

func removeIndex(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// extOf returns the lower-cased extension (without the dot) of name, per
// spec.md §8's boundary rules: no dot at all or a trailing dot both yield
// "", and a dotfile like ".hidden" yields "hidden" (the leading dot is not
// special-cased away — it's the only dot present, so it's the one used).
func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return strings.ToLower(name[i+1:])
		}
	}
	return ""
}
