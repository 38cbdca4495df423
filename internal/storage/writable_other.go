//go:build !linux && !darwin

package storage

import (
	"os"
	"path/filepath"
)

// makeTreeWritable clears the Windows read-only attribute across the tree:
// os.Chmod on Windows maps a writable mode onto FILE_ATTRIBUTE_READONLY,
// which is what actually blocks a rename/delete there (Unix permission
// bits have no Windows equivalent), per spec §4.8's "clear readonly attr"
// remediation step.
func makeTreeWritable(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		return os.Chmod(path, 0o666)
	})
}
