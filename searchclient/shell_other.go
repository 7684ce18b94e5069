//go:build !windows
// +build !windows

package searchclient

import "errors"

var errUnsupportedPlatform = errors.New("shell integration is only supported on Windows")

func launch(string) error           { return errUnsupportedPlatform }
func reveal(string) error           { return errUnsupportedPlatform }
func copyToClipboard(string) error  { return errUnsupportedPlatform }
