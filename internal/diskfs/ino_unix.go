//go:build unix

package diskfs

import (
	"os"
	"syscall"
)

// inodeOf extracts the native inode number when available.
func inodeOf(info os.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(st.Ino)
	}
	return 0
}
