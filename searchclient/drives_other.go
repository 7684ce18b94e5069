//go:build !windows
// +build !windows

package searchclient

// detectDrives has nothing to report off Windows; spec.md's Non-goals
// exclude non-NTFS/cross-platform parity.
func detectDrives() []byte {
	return nil
}
