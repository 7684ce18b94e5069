//go:build windows
// +build windows

package searchclient

import (
	"os/exec"

	"github.com/pkg/errors"
)

// launch opens path with its associated application via the shell, the
// same approach original_source/commands.rs takes (`cmd /C start`) rather
// than resolving file associations itself.
func launch(path string) error {
	cmd := exec.Command("cmd", "/C", "start", "", path)
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	return nil
}

// reveal opens Explorer with path selected.
func reveal(path string) error {
	cmd := exec.Command("explorer", "/select,", path)
	// explorer.exe returns a nonzero exit code on success often enough
	// that checking it would produce false failures; best-effort only.
	_ = cmd.Run()
	return nil
}

// copyToClipboard shells out to clip.exe, the simplest clipboard write
// path on Windows with no extra dependency.
func copyToClipboard(path string) error {
	cmd := exec.Command("clip")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "opening clip.exe stdin")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "starting clip.exe")
	}
	if _, err := stdin.Write([]byte(path)); err != nil {
		return errors.Wrap(err, "writing to clip.exe")
	}
	stdin.Close()
	return cmd.Wait()
}
