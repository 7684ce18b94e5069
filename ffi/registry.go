package ffi

import (
	"context"
	"sync"
	"time"

	"github.com/riftcode/volsearch/changetracker"
	"github.com/riftcode/volsearch/mft"
	"github.com/riftcode/volsearch/pathresolve"
	"github.com/riftcode/volsearch/searchindex"
	"github.com/riftcode/volsearch/volio"
)

// Registry holds per-drive state for the C ABI — the thing a cgo shim
// wraps so every exported function is a thin argument-marshaling call
// instead of reimplementing volume bookkeeping at the boundary. It plays
// the same role as searchclient.Client's volume map, kept separate since
// the C ABI is indexed purely by drive letter (no context.Context, no
// Go-side callbacks) and does not run a background Poller per drive —
// read_usn_changes is pull-only from this surface.
type Registry struct {
	mu      sync.RWMutex
	indexes map[byte]*searchindex.SearchIndex
	handles map[byte]volio.VolumeHandle
}

// NewRegistry returns an empty registry. Callers typically keep one
// package-level instance for the process's lifetime, matching the single
// static registry a C host would expect behind a handle-free API.
func NewRegistry() *Registry {
	return &Registry{
		indexes: make(map[byte]*searchindex.SearchIndex),
		handles: make(map[byte]volio.VolumeHandle),
	}
}

// volumeHandle returns (opening if necessary) the VolumeHandle for letter.
func (r *Registry) volumeHandle(letter byte) (volio.VolumeHandle, error) {
	r.mu.RLock()
	h, ok := r.handles[letter]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	h, err := volio.OpenVolume(letter)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.handles[letter] = h
	r.mu.Unlock()
	return h, nil
}

// ScanDrive runs one full mft.Enumerate + pathresolve.Resolve pass and
// returns wire-ready scan items, backing scan_drive_packed.
func (r *Registry) ScanDrive(ctx context.Context, letter byte, policy pathresolve.ExclusionPolicy) ([]ScanItem, error) {
	vol, err := r.volumeHandle(letter)
	if err != nil {
		return nil, err
	}

	records, errc := mft.Enumerate(ctx, vol, letter)
	var collected []mft.Record
	for rec := range records {
		collected = append(collected, rec)
	}
	if err := <-errc; err != nil {
		return nil, err
	}

	resolved := pathresolve.Resolve(collected, letter, policy, pathresolve.LookupAttrsOS)
	return ResolvedToScanItems(resolved), nil
}

// EnumerateMFT runs a raw MFT enumeration with no path reconstruction,
// backing enumerate_mft.
func (r *Registry) EnumerateMFT(ctx context.Context, letter byte) ([]mft.Record, error) {
	vol, err := r.volumeHandle(letter)
	if err != nil {
		return nil, err
	}

	records, errc := mft.Enumerate(ctx, vol, letter)
	var collected []mft.Record
	for rec := range records {
		collected = append(collected, rec)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return collected, nil
}

// QueryUSN backs query_usn: the journal identity and current cursor.
func (r *Registry) QueryUSN(letter byte) (volio.JournalData, error) {
	vol, err := r.volumeHandle(letter)
	if err != nil {
		return volio.JournalData{}, err
	}
	return vol.QueryJournal()
}

// ReadChanges backs read_usn_changes: one pull of classified journal
// events since sinceUSN, and the USN to resume from.
func (r *Registry) ReadChanges(letter byte, sinceUSN int64) ([]changetracker.ChangeEvent, int64, error) {
	vol, err := r.volumeHandle(letter)
	if err != nil {
		return nil, sinceUSN, err
	}
	return changetracker.ReadChanges(vol, sinceUSN)
}

// index returns the SearchIndex for letter, building an empty one on first
// use — add_item/search_*/save_index/load_index all need somewhere to
// operate even before a scan has populated it (load_index is often the
// first call against a freshly started process).
func (r *Registry) index(letter byte) *searchindex.SearchIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.indexes[letter]
	if !ok {
		idx = searchindex.New()
		r.indexes[letter] = idx
	}
	return idx
}

// BuildIndex replaces letter's index with items, the step that follows a
// ScanDrive call when the caller wants subsequent search_* calls to read
// from an in-memory index rather than re-scanning.
func (r *Registry) BuildIndex(letter byte, items []searchindex.IndexedItem) {
	r.index(letter).Build(items)
}

// SearchPrefix/SearchContains/SearchByExtension/SearchByModTimeRange back
// the four search_* C ABI entry points.
func (r *Registry) SearchPrefix(letter byte, prefix string) []searchindex.IndexedItem {
	return r.index(letter).SearchPrefix(prefix)
}

func (r *Registry) SearchContains(letter byte, substr string) []searchindex.IndexedItem {
	return r.index(letter).SearchContains(substr)
}

func (r *Registry) SearchByExtension(letter byte, ext string) []searchindex.IndexedItem {
	return r.index(letter).SearchByExtension(ext)
}

func (r *Registry) SearchByModTimeRange(letter byte, fromUnix, toUnix int64) []searchindex.IndexedItem {
	return r.index(letter).SearchByModTimeRange(time.Unix(fromUnix, 0), time.Unix(toUnix, 0))
}

// AddItem/RemoveItem back add_item/remove_item.
func (r *Registry) AddItem(letter byte, item searchindex.IndexedItem) {
	r.index(letter).Add(item)
}

func (r *Registry) RemoveItem(letter byte, fileRef uint64) bool {
	return r.index(letter).RemoveByRef(fileRef)
}

// SaveIndex/LoadIndex back save_index/load_index. The caller supplies the
// journal identifier and USN the index is current as of (typically read
// via QueryUSN just before saving) so the blob carries the epoch a later
// LoadIndex needs to tell a stale load from a reusable one, per spec.md
// §3's journal-id-as-epoch rule; LoadIndex hands the stamped values back
// so the caller can make that comparison against the volume's live journal.
func (r *Registry) SaveIndex(letter byte, path string, journalID uint64, lastUSN int64) error {
	return r.index(letter).Save(path, journalID, lastUSN)
}

func (r *Registry) LoadIndex(letter byte, path string) (journalID uint64, lastUSN int64, err error) {
	return r.index(letter).Load(path)
}

// WarmCache ensures letter has an open VolumeHandle and a built index,
// backing the C ABI's "warm cache" entry point — a no-op if both already
// exist, otherwise equivalent to ScanDrive followed by BuildIndex.
func (r *Registry) WarmCache(ctx context.Context, letter byte, policy pathresolve.ExclusionPolicy) error {
	r.mu.RLock()
	_, hasIndex := r.indexes[letter]
	_, hasHandle := r.handles[letter]
	r.mu.RUnlock()
	if hasIndex && hasHandle {
		return nil
	}

	vol, err := r.volumeHandle(letter)
	if err != nil {
		return err
	}
	records, errc := mft.Enumerate(ctx, vol, letter)
	var collected []mft.Record
	for rec := range records {
		collected = append(collected, rec)
	}
	if err := <-errc; err != nil {
		return err
	}
	resolved := pathresolve.Resolve(collected, letter, policy, pathresolve.LookupAttrsOS)
	items := make([]searchindex.IndexedItem, 0, len(resolved))
	for _, rp := range resolved {
		items = append(items, searchindex.IndexedItem{
			FileRef:   rp.FileRef,
			ParentRef: rp.ParentRef,
			Name:      baseName(rp.Path),
			Path:      rp.Path,
			Size:      rp.Size,
			IsDir:     rp.IsDir,
			ModTime:   rp.ModTime,
		})
	}
	r.BuildIndex(letter, items)
	return nil
}

// ClearCache drops letter's in-memory index and closes its volume handle,
// backing the C ABI's "clear cache" entry point.
func (r *Registry) ClearCache(letter byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexes, letter)
	if h, ok := r.handles[letter]; ok {
		h.Close()
		delete(r.handles, letter)
	}
}

