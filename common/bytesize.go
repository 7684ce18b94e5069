package common

import "fmt"

// byteSizeUnits mirrors common/byteSizeString.go's table, trimmed to the
// binary units the search syntax's size: filter and CLI output both need.
var byteSizeUnits = []struct {
	suffix string
	size   int64
}{
	{"GB", 1024 * 1024 * 1024},
	{"MB", 1024 * 1024},
	{"KB", 1024},
}

// ByteSizeToString formats a byte count the way the teacher's
// ByteSizeToString does: largest unit that keeps the value >= 1.
func ByteSizeToString(n int64) string {
	for _, u := range byteSizeUnits {
		if n >= u.size {
			return fmt.Sprintf("%.2f %s", float64(n)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%d B", n)
}
