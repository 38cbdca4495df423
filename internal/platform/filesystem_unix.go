//go:build linux || darwin

package platform

import (
	"golang.org/x/sys/unix"
)

// classifyPath uses statfs, the same syscall family original_source/src/platform/filesystem.rs
// relies on, matching f_type (Linux) / f_fstypename (Darwin, via Fstypename)
// against the magic-number/name table in spec §4.3.
func classifyPath(path string) (FilesystemInfo, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return FilesystemInfo{}, err
	}
	return classify(fsTypeName(stat)), nil
}
