package searchclient

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/searchindex"
)

// DeleteFile removes path from disk, then removes it from its volume's
// index and persists the change, per spec.md §6 and SPEC_FULL.md §6.1
// ("must remove the index entry and rewrite the persisted blob"). The
// deletion itself is the operation that must succeed or fail for the
// caller; a failure to rewrite the cache blob afterward is logged rather
// than returned, since the file is already gone and the in-memory index
// already reflects that — the on-disk blob is a warm-start cache that the
// next build naturally reconstructs if it's ever missing or stale.
func (c *Client) DeleteFile(letter byte, path string) error {
	c.mu.RLock()
	idx, ok := c.volumes[letter]
	c.mu.RUnlock()
	if !ok {
		return errors.Errorf("drive %c: has not been indexed yet", letter)
	}

	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "deleting %s", path)
	}

	idx.RemoveByPath(path)
	if idx.IsDirty() {
		if err := c.persistIndex(letter, idx); err != nil {
			c.logger.Logf(common.ELogLevel.Warn(), "drive %c: could not persist index after delete: %v", letter, err)
		}
	}
	return nil
}

// persistIndex saves idx to its spec-mandated path, stamped with the
// journal epoch its running poller (if any) has caught up to.
func (c *Client) persistIndex(letter byte, idx *searchindex.SearchIndex) error {
	c.mu.RLock()
	poller, ok := c.pollers[letter]
	c.mu.RUnlock()
	var journalID uint64
	var lastUSN int64
	if ok {
		journalID, lastUSN = poller.Snapshot()
	}
	return idx.Save(c.indexPathFor(letter), journalID, lastUSN)
}

// OpenFile launches path with the OS's default handler for its type.
// original_source/commands.rs shells out to the platform opener
// (`cmd /C start`/`xdg-open`/`open`) rather than reimplementing
// association lookup; this does the same, scoped to Windows since
// spec.md's Non-goals exclude cross-platform parity.
func (c *Client) OpenFile(path string) error {
	return launch(path)
}

// LocateFile opens the containing folder with path selected, the
// "reveal in Explorer" action every desktop search tool offers.
func (c *Client) LocateFile(path string) error {
	return reveal(path)
}

// CopyToClipboard copies path's text onto the system clipboard, the thin
// "copy path" action original_source/commands.rs exposes alongside
// open/locate.
func (c *Client) CopyToClipboard(path string) error {
	return copyToClipboard(path)
}

// ExportCSV writes rows to path as CSV. This is deliberately a pure
// formatting function with no index dependency — per SPEC_FULL.md §6.1,
// callers fetch the rows to export (e.g. via SearchFiles) first.
func ExportCSV(path string, rows []searchindex.IndexedItem) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"name", "path", "size", "is_dir", "modified"}); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			row.Path,
			strconv.FormatInt(row.Size, 10),
			strconv.FormatBool(row.IsDir),
			row.ModTime.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	return w.Error()
}

// indexPathFor returns the per-volume blob path spec.md §6 mandates: one
// file per volume at its own root, not a path under a separately
// configured directory, so the blob travels with the volume it describes.
func (c *Client) indexPathFor(letter byte) string {
	return string(letter) + `:\.search_index.bin`
}
