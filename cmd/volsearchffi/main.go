// Command volsearchffi builds the C ABI surface spec.md §6 describes
// ("C ABI (for callers outside the hosting runtime): scan, enumerate-MFT,
// query-USN, read-USN-changes, search by prefix/contains/extension/mtime,
// add/remove item, save/load, warm/clear cache") as a cgo shared/static
// library. It is a thin marshaling layer over the `ffi` package's
// Registry — every function here converts C arguments to Go values, calls
// into Registry, and packs the Go result back into a C buffer paired with
// an explicit free function, per spec.md §6's "Buffers are paired with
// explicit free functions" rule.
//
// Grounded in the original Rust lib.rs's #[no_mangle] extern "C" surface
// for the function list and buffer/free pairing, and in the teacher's own
// manual pointer arithmetic over a packed layout in ste/JobPartPlan.go.
// Built only under -tags cgo_ffi (see ffi/pack.go's package doc): this is a
// consumer surface, not exercised by the core's own test suite, and cgo
// cross-compilation has no business gating every other `go build`/`go
// test` invocation against this module.
//
//go:build cgo_ffi

package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"context"
	"time"
	"unsafe"

	"github.com/riftcode/volsearch/common"
	"github.com/riftcode/volsearch/ffi"
	"github.com/riftcode/volsearch/pathresolve"
	"github.com/riftcode/volsearch/searchindex"
)

var registry = ffi.NewRegistry()
var policy = pathresolve.DefaultExclusionPolicy()

func errCode(err error) C.int32_t {
	if err == nil {
		return C.int32_t(common.EErrorKind.None())
	}
	var coreErr *common.CoreError
	if ce, ok := err.(*common.CoreError); ok {
		coreErr = ce
	}
	if coreErr != nil {
		return C.int32_t(coreErr.Kind)
	}
	return C.int32_t(common.EErrorKind.InvalidArgument())
}

func driveLetter(raw C.uint16_t) byte {
	return byte(raw)
}

func goStringFromC(ptr *C.char, length C.int32_t) string {
	if ptr == nil || length <= 0 {
		return ""
	}
	return C.GoStringN(ptr, C.int(length))
}

// packBuffer copies a Go []byte into a malloc'd C buffer the caller must
// release with the matching free_* function; an empty/nil payload yields a
// null pointer with length 0, which every free_* function accepts. (Every
// ffi.Encode* output carries at least its 8-byte trailing count, so the
// search/scan/change entry points always hand back a real allocation.)
func packBuffer(data []byte, outPtr **C.uint8_t, outLen *C.int64_t) {
	n := len(data)
	*outLen = C.int64_t(n)
	if n == 0 {
		*outPtr = nil
		return
	}
	cbuf := C.malloc(C.size_t(n))
	C.memcpy(cbuf, unsafe.Pointer(&data[0]), C.size_t(n))
	*outPtr = (*C.uint8_t)(cbuf)
}

//export free_scan_result
func free_scan_result(ptr *C.uint8_t) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

//export free_search_result
func free_search_result(ptr *C.uint8_t) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

//export free_change_list
func free_change_list(ptr *C.uint8_t) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

//export free_usn_change_result
func free_usn_change_result(ptr *C.uint8_t) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

//export scan_drive_packed
func scan_drive_packed(driveLetterArg C.uint16_t, outPtr **C.uint8_t, outLen *C.int64_t) C.int32_t {
	items, err := registry.ScanDrive(context.Background(), driveLetter(driveLetterArg), policy)
	if err != nil {
		return errCode(err)
	}
	packBuffer(ffi.EncodeScanItems(items), outPtr, outLen)
	return C.int32_t(common.EErrorKind.None())
}

//export enumerate_mft
func enumerate_mft(driveLetterArg C.uint16_t, outPtr **C.uint8_t, outLen *C.int64_t) C.int32_t {
	records, err := registry.EnumerateMFT(context.Background(), driveLetter(driveLetterArg))
	if err != nil {
		return errCode(err)
	}
	packBuffer(ffi.EncodeMFTRecords(records), outPtr, outLen)
	return C.int32_t(common.EErrorKind.None())
}

//export query_usn
func query_usn(driveLetterArg C.uint16_t, outJournalID *C.uint64_t, outNextUSN *C.int64_t) C.int32_t {
	journal, err := registry.QueryUSN(driveLetter(driveLetterArg))
	if err != nil {
		return errCode(err)
	}
	*outJournalID = C.uint64_t(journal.JournalID)
	*outNextUSN = C.int64_t(journal.NextUSN)
	return C.int32_t(common.EErrorKind.None())
}

//export read_usn_changes
func read_usn_changes(driveLetterArg C.uint16_t, sinceUSN C.int64_t, outPtr **C.uint8_t, outLen *C.int64_t, outNextUSN *C.int64_t) C.int32_t {
	events, nextUSN, err := registry.ReadChanges(driveLetter(driveLetterArg), int64(sinceUSN))
	if err != nil {
		return errCode(err)
	}
	packBuffer(ffi.EncodeChangeList(events), outPtr, outLen)
	*outNextUSN = C.int64_t(nextUSN)
	return C.int32_t(common.EErrorKind.None())
}

//export search_prefix
func search_prefix(driveLetterArg C.uint16_t, prefixPtr *C.char, prefixLen C.int32_t, outPtr **C.uint8_t, outLen *C.int64_t) C.int32_t {
	results := registry.SearchPrefix(driveLetter(driveLetterArg), goStringFromC(prefixPtr, prefixLen))
	packBuffer(ffi.EncodeSearchResults(results), outPtr, outLen)
	return C.int32_t(common.EErrorKind.None())
}

//export search_contains
func search_contains(driveLetterArg C.uint16_t, substrPtr *C.char, substrLen C.int32_t, outPtr **C.uint8_t, outLen *C.int64_t) C.int32_t {
	results := registry.SearchContains(driveLetter(driveLetterArg), goStringFromC(substrPtr, substrLen))
	packBuffer(ffi.EncodeSearchResults(results), outPtr, outLen)
	return C.int32_t(common.EErrorKind.None())
}

//export search_by_extension
func search_by_extension(driveLetterArg C.uint16_t, extPtr *C.char, extLen C.int32_t, outPtr **C.uint8_t, outLen *C.int64_t) C.int32_t {
	results := registry.SearchByExtension(driveLetter(driveLetterArg), goStringFromC(extPtr, extLen))
	packBuffer(ffi.EncodeSearchResults(results), outPtr, outLen)
	return C.int32_t(common.EErrorKind.None())
}

//export search_by_mtime_range
func search_by_mtime_range(driveLetterArg C.uint16_t, fromUnix C.int64_t, toUnix C.int64_t, outPtr **C.uint8_t, outLen *C.int64_t) C.int32_t {
	results := registry.SearchByModTimeRange(driveLetter(driveLetterArg), int64(fromUnix), int64(toUnix))
	packBuffer(ffi.EncodeSearchResults(results), outPtr, outLen)
	return C.int32_t(common.EErrorKind.None())
}

//export add_item
func add_item(driveLetterArg C.uint16_t, namePtr *C.char, nameLen C.int32_t, pathPtr *C.char, pathLen C.int32_t, fileRef C.uint64_t, parentRef C.uint64_t, size C.int64_t, isDir C.uint8_t, mtimeUnix C.int64_t) C.int32_t {
	item := searchindex.IndexedItem{
		Name:      goStringFromC(namePtr, nameLen),
		Path:      goStringFromC(pathPtr, pathLen),
		FileRef:   uint64(fileRef),
		ParentRef: uint64(parentRef),
		Size:      int64(size),
		IsDir:     isDir != 0,
		ModTime:   time.Unix(int64(mtimeUnix), 0),
	}
	registry.AddItem(driveLetter(driveLetterArg), item)
	return C.int32_t(common.EErrorKind.None())
}

//export remove_item
func remove_item(driveLetterArg C.uint16_t, fileRef C.uint64_t) C.int32_t {
	if !registry.RemoveItem(driveLetter(driveLetterArg), uint64(fileRef)) {
		return C.int32_t(common.EErrorKind.InvalidArgument())
	}
	return C.int32_t(common.EErrorKind.None())
}

//export save_index
func save_index(driveLetterArg C.uint16_t, pathPtr *C.char, pathLen C.int32_t, journalID C.uint64_t, lastUSN C.int64_t) C.int32_t {
	if err := registry.SaveIndex(driveLetter(driveLetterArg), goStringFromC(pathPtr, pathLen), uint64(journalID), int64(lastUSN)); err != nil {
		return C.int32_t(common.EErrorKind.Serialization())
	}
	return C.int32_t(common.EErrorKind.None())
}

//export load_index
func load_index(driveLetterArg C.uint16_t, pathPtr *C.char, pathLen C.int32_t, outJournalID *C.uint64_t, outLastUSN *C.int64_t) C.int32_t {
	journalID, lastUSN, err := registry.LoadIndex(driveLetter(driveLetterArg), goStringFromC(pathPtr, pathLen))
	if err != nil {
		return C.int32_t(common.EErrorKind.Serialization())
	}
	*outJournalID = C.uint64_t(journalID)
	*outLastUSN = C.int64_t(lastUSN)
	return C.int32_t(common.EErrorKind.None())
}

//export warm_cache
func warm_cache(driveLetterArg C.uint16_t) C.int32_t {
	if err := registry.WarmCache(context.Background(), driveLetter(driveLetterArg), policy); err != nil {
		return errCode(err)
	}
	return C.int32_t(common.EErrorKind.None())
}

//export clear_cache
func clear_cache(driveLetterArg C.uint16_t) {
	registry.ClearCache(driveLetter(driveLetterArg))
}

func main() {}
