package searchindex

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// persistedItem is the on-disk shape: NameLower and the tombstone flag are
// deliberately absent. NameLower is recomputed from Name on Load, mirroring
// search_index.rs's `#[serde(skip)] name_lower` — there is no reason to
// store a derived field, and tombstoned items are dropped before encoding
// so there's nothing to mark deleted on disk.
type persistedItem struct {
	Name      string
	Path      string
	FileRef   uint64
	ParentRef uint64
	Size      int64
	IsDir     bool
	ModTime   time.Time
}

// formatVersion guards against loading a blob written by an incompatible
// future revision of this package.
const formatVersion = 1

// Save persists every live item to path as a length-prefixed gob stream:
// a version byte, the volume's journal identifier and the USN the caller
// has observed changes up to, a uint64 byte-length, then the gob-encoded
// item slice — matching spec.md §6's documented blob shape plus the
// journal_id/last_seen_usn epoch spec.md §3 and §8 scenario 6 require so a
// later Load can tell a stale blob from a reusable one. Writing goes
// through a temp file + rename so a crash mid-save can't corrupt an
// existing index, the same atomicity idiom config.Save uses.
func (idx *SearchIndex) Save(path string, journalID uint64, lastUSN int64) error {
	idx.itemsMu.RLock()
	live := make([]persistedItem, 0, len(idx.items))
	for _, it := range idx.items {
		if it.deleted {
			continue
		}
		live = append(live, persistedItem{
			Name:      it.Name,
			Path:      it.Path,
			FileRef:   it.FileRef,
			ParentRef: it.ParentRef,
			Size:      it.Size,
			IsDir:     it.IsDir,
			ModTime:   it.ModTime,
		})
	}
	idx.itemsMu.RUnlock()

	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(live); err != nil {
		return errors.Wrap(err, "encoding search index")
	}

	dir := "."
	if i := lastSlash(path); i >= 0 {
		dir = path[:i]
	}
	tmp, err := os.CreateTemp(dir, ".searchindex-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp index file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write([]byte{formatVersion}); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing index header")
	}
	if err := binary.Write(tmp, binary.LittleEndian, journalID); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing index journal id")
	}
	if err := binary.Write(tmp, binary.LittleEndian, lastUSN); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing index last-seen USN")
	}
	if err := binary.Write(tmp, binary.LittleEndian, uint64(body.Len())); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing index length prefix")
	}
	if _, err := tmp.Write(body.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing index body")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp index file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming temp index file into place")
	}

	idx.dirtyMu.Lock()
	idx.dirty = false
	idx.dirtyMu.Unlock()
	return nil
}

// Load replaces the index's contents with the blob at path, returning the
// journal identifier and last-seen USN it was saved with so the caller can
// decide, per spec.md §3's "journal identifier as epoch" rule, whether the
// blob is still valid against the volume's current journal or must be
// discarded in favor of a full rebuild.
func (idx *SearchIndex) Load(path string) (journalID uint64, lastUSN int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(err, "opening index file")
	}
	defer f.Close()

	var version [1]byte
	if _, err := io.ReadFull(f, version[:]); err != nil {
		return 0, 0, errors.Wrap(err, "reading index header")
	}
	if version[0] != formatVersion {
		return 0, 0, errors.Errorf("unsupported search index format version %d", version[0])
	}

	if err := binary.Read(f, binary.LittleEndian, &journalID); err != nil {
		return 0, 0, errors.Wrap(err, "reading index journal id")
	}
	if err := binary.Read(f, binary.LittleEndian, &lastUSN); err != nil {
		return 0, 0, errors.Wrap(err, "reading index last-seen USN")
	}

	var bodyLen uint64
	if err := binary.Read(f, binary.LittleEndian, &bodyLen); err != nil {
		return 0, 0, errors.Wrap(err, "reading index length prefix")
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(f, body); err != nil {
		return 0, 0, errors.Wrap(err, "reading index body")
	}

	var persisted []persistedItem
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&persisted); err != nil {
		return 0, 0, errors.Wrap(err, "decoding search index")
	}

	items := make([]IndexedItem, len(persisted))
	for i, p := range persisted {
		items[i] = IndexedItem{
			Name:      p.Name,
			Path:      p.Path,
			FileRef:   p.FileRef,
			ParentRef: p.ParentRef,
			Size:      p.Size,
			IsDir:     p.IsDir,
			ModTime:   p.ModTime,
		}
	}
	idx.Build(items)

	idx.dirtyMu.Lock()
	idx.dirty = false
	idx.dirtyMu.Unlock()
	return journalID, lastUSN, nil
}

func lastSlash(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return i
		}
	}
	return -1
}
