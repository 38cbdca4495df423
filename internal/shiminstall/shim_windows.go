//go:build windows

package shiminstall

import (
	"fmt"
	"io"
	"os"
)

// createShimFile copies kopiShimPath to shimPath: Windows cannot reliably
// exec through a symlink, so each tool gets its own copy of kopi-shim.exe,
// per spec §4.12.
func createShimFile(kopiShimPath, shimPath string) error {
	src, err := os.Open(kopiShimPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(shimPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// verifyShimEntry checks that path is a PE executable of at least 1 KiB,
// per spec §4.12/§8's "Windows checks it is a file ≥ 1 KiB whose first
// two bytes are MZ".
func verifyShimEntry(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat shim: %w", err)
	}
	if info.Size() < 1024 {
		return fmt.Errorf("shim file too small (%d bytes)", info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open shim: %w", err)
	}
	defer f.Close()

	header := make([]byte, 2)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("cannot read shim header: %w", err)
	}
	if header[0] != 'M' || header[1] != 'Z' {
		return fmt.Errorf("not a PE executable")
	}
	return nil
}
