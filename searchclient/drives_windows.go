//go:build windows
// +build windows

package searchclient

import "golang.org/x/sys/windows"

// detectDrives checks A:-Z: for presence via GetLogicalDrives' bitmask,
// rather than probing each letter directly the way
// original_source/commands.rs's get_all_drives does.
func detectDrives() []byte {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil
	}
	var drives []byte
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) != 0 {
			drives = append(drives, byte('A'+i))
		}
	}
	return drives
}
