//go:build linux || darwin

package archive

import (
	"os"

	"kopi/internal/kopierr"
)

// applyUnixMode preserves the executable/permission bits an archive records
// (zip's unix_mode, tar's Header.Mode), per spec §4.5. The initial
// os.OpenFile already applied mode at creation time via umask, so this is
// belt-and-suspenders for archives whose mode includes bits umask would
// have stripped (e.g. setgid on a shared JDK install, rare but preserved
// for fidelity with the source archive).
func applyUnixMode(path string, mode os.FileMode) error {
	if err := os.Chmod(path, mode); err != nil {
		return kopierr.IO("failed to set file mode", err)
	}
	return nil
}
