//go:build linux || darwin

package main

import (
	"fmt"
	"os"
	"syscall"
)

// init raises this process's open-file-descriptor limit to its hard
// ceiling, the same adjustment the teacher's own main_unix.go makes before
// starting any transfer work — pathresolve.resolveAttrs stats files over a
// bounded worker pool, but a `build` against a volume with very deep
// directory trees can still hold many file descriptors open briefly across
// that pool, and the default soft limit on most distributions is low
// enough to matter.
func init() {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not read file descriptor limit: %v\n", err)
		return
	}
	if rlimit.Cur >= rlimit.Max {
		return
	}
	rlimit.Cur = rlimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not raise file descriptor limit: %v\n", err)
	}
}
