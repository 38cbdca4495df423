//go:build darwin

package platform

import (
	"strings"

	"golang.org/x/sys/unix"
)

// fsTypeName reads Darwin's human-readable fs type name directly (statfs on
// macOS reports a name string, not a magic number, unlike Linux).
func fsTypeName(stat unix.Statfs_t) string {
	raw := make([]byte, 0, len(stat.Fstypename))
	for _, b := range stat.Fstypename {
		if b == 0 {
			break
		}
		raw = append(raw, byte(b))
	}
	name := strings.ToLower(string(raw))
	switch {
	case strings.Contains(name, "nfs"):
		return "nfs"
	case strings.Contains(name, "smb"), strings.Contains(name, "cifs"):
		return "smb2"
	case strings.Contains(name, "exfat"):
		return "exfat"
	case strings.Contains(name, "msdos"), strings.Contains(name, "fat"):
		return "fat"
	default:
		return name
	}
}
