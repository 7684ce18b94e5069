//go:build !windows
// +build !windows

package volio

// openVolume on any non-Windows target simply reports the platform as
// unsupported; spec.md's Non-goals exclude non-NTFS/cross-platform parity,
// so there is no fallback behavior to implement here, only a build that
// doesn't fail on other platforms (the teacher carries the same
// "other" build-tag variant alongside zc_traverser_local_windows.go).
func openVolume(letter byte) (VolumeHandle, error) {
	return nil, ErrUnsupportedPlatform
}
