//go:build windows

package main

// Windows does not default to a low per-process file descriptor/handle
// limit the way Linux does, so there is nothing to raise here — this file
// exists only so main_unix.go's init has a no-op Windows counterpart,
// matching the split the teacher's own main_unix.go/main_windows.go draw.
