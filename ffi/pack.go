// Package ffi implements the wire encodings behind spec.md §6's C ABI —
// "scan, enumerate-MFT, query-USN, read-USN-changes, search by
// prefix/contains/extension/mtime, add/remove item, save/load, warm/clear
// cache" — without itself depending on cgo. The cgo-exported entry points
// that hand these buffers across the C boundary live in cmd/volsearchffi,
// kept separate because cgo's //export only takes effect in a
// -buildmode=c-shared/c-archive package main build; this package stays an
// ordinary, testable Go library that main wraps.
//
// Grounded in the original Rust lib.rs's #[no_mangle] extern "C" surface
// for the record shapes, and in the teacher's own manual buffer layout
// work in ste/JobPartPlan.go (pointer/length bookkeeping over a packed
// byte range rather than a typed struct tree).
package ffi

import (
	"encoding/binary"
	"math"

	"github.com/riftcode/volsearch/changetracker"
	"github.com/riftcode/volsearch/mft"
	"github.com/riftcode/volsearch/pathresolve"
	"github.com/riftcode/volsearch/searchindex"
)

// ScanItem is one packed scan/search record's in-memory counterpart,
// matching spec.md §6's "items carry (name_ptr, name_len, path_ptr,
// path_len, size, is_dir, mtime)" plus the parent/ext fields the packed
// on-wire format also carries.
type ScanItem struct {
	IsDir     bool
	Name      string
	Path      string
	Parent    string
	Ext       string
	Size      uint64
	MTimeUnix float64
}

// EncodeScanItems serializes items per spec.md §6's "Packed scan record
// format": each record is
// is_dir:u8 | name_len:u16 | path_len:u16 | parent_len:u16 | ext_len:u8 |
// reserved_size:u64 | reserved_mtime:f64 | name_bytes | path_bytes |
// parent_bytes | ext_bytes, followed by a trailing u64 record count.
func EncodeScanItems(items []ScanItem) []byte {
	var buf []byte
	for _, it := range items {
		buf = appendScanItem(buf, it)
	}
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(items)))
	return append(buf, countBuf[:]...)
}

func appendScanItem(buf []byte, it ScanItem) []byte {
	nameB, pathB, parentB, extB := []byte(it.Name), []byte(it.Path), []byte(it.Parent), []byte(it.Ext)

	head := make([]byte, 1+2+2+2+1+8+8)
	if it.IsDir {
		head[0] = 1
	}
	binary.LittleEndian.PutUint16(head[1:3], uint16(len(nameB)))
	binary.LittleEndian.PutUint16(head[3:5], uint16(len(pathB)))
	binary.LittleEndian.PutUint16(head[5:7], uint16(len(parentB)))
	head[7] = byte(len(extB))
	binary.LittleEndian.PutUint64(head[8:16], it.Size)
	binary.LittleEndian.PutUint64(head[16:24], math.Float64bits(it.MTimeUnix))

	buf = append(buf, head...)
	buf = append(buf, nameB...)
	buf = append(buf, pathB...)
	buf = append(buf, parentB...)
	buf = append(buf, extB...)
	return buf
}

// indexedItemToScanItem adapts a searchindex.IndexedItem — the shape every
// search/scan result actually comes from — into the wire-ready ScanItem.
func indexedItemToScanItem(it searchindex.IndexedItem, parentPath string) ScanItem {
	return ScanItem{
		IsDir:     it.IsDir,
		Name:      it.Name,
		Path:      it.Path,
		Parent:    parentPath,
		Ext:       extOf(it.Name),
		Size:      uint64(it.Size),
		MTimeUnix: float64(it.ModTime.Unix()),
	}
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return ""
}

// EncodeSearchResults packs a slice of already-matched items for
// search_prefix/search_contains/search_by_extension/search_by_mtime_range,
// same wire shape as EncodeScanItems.
func EncodeSearchResults(items []searchindex.IndexedItem) []byte {
	out := make([]ScanItem, 0, len(items))
	for _, it := range items {
		out = append(out, indexedItemToScanItem(it, parentOf(it.Path)))
	}
	return EncodeScanItems(out)
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// MFTRecord is the packed counterpart of mft.Record for enumerate_mft,
// which surfaces raw enumeration results before path reconstruction runs —
// callers get file/parent references rather than full paths.
type MFTRecord struct {
	FileRef   uint64
	ParentRef uint64
	IsDir     bool
	Name      string
}

// EncodeMFTRecords packs enumerate_mft's result:
// file_ref:u64 | parent_ref:u64 | is_dir:u8 | name_len:u16 | name_bytes,
// followed by a trailing u64 count — a leaner record than the scan format
// since no path has been resolved yet.
func EncodeMFTRecords(records []mft.Record) []byte {
	var buf []byte
	for _, r := range records {
		nameB := []byte(r.Name)
		head := make([]byte, 8+8+1+2)
		binary.LittleEndian.PutUint64(head[0:8], r.FileRef)
		binary.LittleEndian.PutUint64(head[8:16], r.ParentRef)
		if r.IsDir {
			head[16] = 1
		}
		binary.LittleEndian.PutUint16(head[17:19], uint16(len(nameB)))
		buf = append(buf, head...)
		buf = append(buf, nameB...)
	}
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(records)))
	return append(buf, countBuf[:]...)
}

// EncodeChangeList packs read_usn_changes' result:
// action:u8 | file_ref:u64 | parent_ref:u64 | usn:i64 | is_dir:u8 |
// name_len:u16 | name_bytes, followed by a trailing u64 count.
func EncodeChangeList(events []changetracker.ChangeEvent) []byte {
	var buf []byte
	for _, ev := range events {
		nameB := []byte(ev.Name)
		head := make([]byte, 1+8+8+8+1+2)
		head[0] = actionCode(ev.Action)
		binary.LittleEndian.PutUint64(head[1:9], ev.FileRef)
		binary.LittleEndian.PutUint64(head[9:17], ev.ParentRef)
		binary.LittleEndian.PutUint64(head[17:25], uint64(ev.Usn))
		if ev.IsDir {
			head[25] = 1
		}
		binary.LittleEndian.PutUint16(head[26:28], uint16(len(nameB)))
		buf = append(buf, head...)
		buf = append(buf, nameB...)
	}
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(events)))
	return append(buf, countBuf[:]...)
}

func actionCode(a changetracker.ChangeAction) byte {
	return byte(a)
}

// ResolvedToScanItems adapts pathresolve.Resolve's output map directly into
// ScanItem form for scan_drive_packed, the one-shot full-volume scan entry
// point — the counterpart of searchclient.Client.scanVolume's own
// resolved-map-to-IndexedItem conversion, but targeting the wire format
// instead of a SearchIndex.
func ResolvedToScanItems(resolved map[uint64]pathresolve.ResolvedPath) []ScanItem {
	out := make([]ScanItem, 0, len(resolved))
	for _, rp := range resolved {
		out = append(out, ScanItem{
			IsDir:     rp.IsDir,
			Name:      baseName(rp.Path),
			Path:      rp.Path,
			Parent:    parentOf(rp.Path),
			Ext:       extOf(rp.Path),
			Size:      uint64(rp.Size),
			MTimeUnix: float64(rp.ModTime.Unix()),
		})
	}
	return out
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
