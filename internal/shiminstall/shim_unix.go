//go:build linux || darwin

package shiminstall

import (
	"fmt"
	"os"
	"strings"
)

// createShimFile symlinks shimPath to kopiShimPath, per spec §4.12's "on
// Unix, each entry is a symlink pointing at bin/kopi-shim", grounded on
// golang-dep's internal/fs.go symlink helpers (the only symlink-handling
// code in the retrieved corpus).
func createShimFile(kopiShimPath, shimPath string) error {
	return os.Symlink(kopiShimPath, shimPath)
}

// verifyShimEntry checks that path is a symlink to something named
// kopi-shim that still resolves, per spec §4.12/§8.
func verifyShimEntry(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("cannot stat shim: %w", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("not a symlink")
	}

	target, err := os.Readlink(path)
	if err != nil {
		return fmt.Errorf("cannot read symlink target: %w", err)
	}
	if !strings.HasSuffix(target, "kopi-shim") {
		return fmt.Errorf("invalid symlink target %q", target)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("broken symlink: %w", err)
	}
	return nil
}
