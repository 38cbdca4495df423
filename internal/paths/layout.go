// Package paths computes every file and directory kopi owns from a single
// kopi_home root. Nothing here touches the filesystem except the Ensure*
// helpers, which create missing directories.
package paths

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Layout is the deterministic function from kopi_home to every path kopi
// reads or writes. It mirrors the teacher's getDefaultDownloadDir /
// GetJVMVersionsDirectory pattern (internal/cmd/download.go,
// internal/utils/jdk_utils.go) but centralizes every subordinate path instead
// of recomputing ~/.jvm/versions ad hoc in each command.
type Layout struct {
	Home string
}

// New builds a Layout rooted at home. Callers resolve home from KOPI_HOME or
// the user's home directory before calling this (see ResolveHome).
func New(home string) Layout {
	return Layout{Home: home}
}

// ResolveHome implements the KOPI_HOME override from spec §6: KOPI_HOME wins
// when set, else $HOME/.kopi.
func ResolveHome() (string, error) {
	if h := os.Getenv("KOPI_HOME"); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kopi"), nil
}

func (l Layout) ConfigFile() string  { return filepath.Join(l.Home, "config.toml") }
func (l Layout) GlobalVersionFile() string { return filepath.Join(l.Home, "version") }

func (l Layout) JdksDir() string     { return filepath.Join(l.Home, "jdks") }
func (l Layout) CacheDir() string    { return filepath.Join(l.Home, "cache") }
func (l Layout) ShimsDir() string    { return filepath.Join(l.Home, "shims") }
func (l Layout) BinDir() string      { return filepath.Join(l.Home, "bin") }
func (l Layout) LocksDir() string    { return filepath.Join(l.Home, "locks") }
func (l Layout) TmpInstallDir() string { return filepath.Join(l.JdksDir(), ".tmp") }
func (l Layout) CacheTmpDir() string { return filepath.Join(l.CacheDir(), "tmp") }
func (l Layout) CacheMetadataFile() string { return filepath.Join(l.CacheDir(), "metadata.json") }

// StagingDir returns a fresh staging directory name under jdks/.tmp for the
// given install id (typically a uuid); callers create it themselves
// (EnsureDirs creates only its .tmp parent).
func (l Layout) StagingDir(installID string) string {
	return filepath.Join(l.TmpInstallDir(), "install-"+installID)
}

// JdkDir returns the final install directory for a slug.
func (l Layout) JdkDir(slug string) string { return filepath.Join(l.JdksDir(), slug) }

// JdkMetaFile returns the sidecar metadata file for a slug.
func (l Layout) JdkMetaFile(slug string) string { return filepath.Join(l.JdksDir(), slug+".meta.json") }

func executableSuffix() string {
	if isWindowsGOOS() {
		return ".exe"
	}
	return ""
}

// ShimPath returns the path of the shim entry for tool under shims/.
func (l Layout) ShimPath(tool string) string {
	return filepath.Join(l.ShimsDir(), tool+executableSuffix())
}

// KopiBinary and KopiShimBinary return the paths of the two binaries kopi
// ships under bin/.
func (l Layout) KopiBinary() string     { return filepath.Join(l.BinDir(), "kopi"+executableSuffix()) }
func (l Layout) KopiShimBinary() string { return filepath.Join(l.BinDir(), "kopi-shim"+executableSuffix()) }

func (l Layout) LockFile(slug string) string {
	return filepath.Join(l.LocksDir(), slug+".lock")
}

func (l Layout) LockMarkerFile(slug string) string {
	return filepath.Join(l.LocksDir(), slug+".lock.marker")
}

// EnsureDirs creates every directory the layout owns, mirroring the
// teacher's os.MkdirAll(outputDir, 0755) calls sprinkled through
// internal/cmd/download.go, but collected in one place.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{
		l.JdksDir(), l.CacheDir(), l.ShimsDir(), l.BinDir(), l.LocksDir(),
		l.TmpInstallDir(), l.CacheTmpDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
var dashTrim = regexp.MustCompile(`^-+|-+$`)

// Sanitize turns an arbitrary string into a filesystem- and lock-name-safe
// slug component: lowercase ASCII, non-alphanumerics collapsed to a single
// dash, leading/trailing dashes trimmed. Used both for coordinate slugs (L1/L3
// of the spec's data model) and for distribution/version path components.
func Sanitize(s string) string {
	lower := strings.ToLower(s)
	collapsed := nonSlugChars.ReplaceAllString(lower, "-")
	return dashTrim.ReplaceAllString(collapsed, "")
}
