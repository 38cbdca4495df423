// Package locking implements kopi's concurrency-safe locking subsystem (L4):
// scoped advisory file locks with an atomic-file fallback for network
// filesystems, RAII-style release guards, and a startup hygiene sweep.
// Grounded on original_source/src/locking/{scope,package_coordinate,
// controller,fallback,handle,hygiene,scoped_guard}.rs, carried over into the
// teacher's Go idiom: exported structs with accessor methods instead of Rust
// enums, explicit error returns instead of Result<T, KopiError>, and
// golang.org/x/sys for the platform-specific lock syscalls the teacher
// already depends on (internal/cmd/use.go's Windows registry/ShellExecute
// calls are the same "reach past the stdlib for the real syscall" pattern).
package locking

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"kopi/internal/paths"
)

// LockKind is whether a scope's lock is held exclusively or may be shared
// by multiple readers. Only Exclusive is used today (spec §4.4 names no
// shared-lock scope), but the distinction is kept because LockScope.lock_path
// callers branch on it in the original implementation.
type LockKind int

const (
	Exclusive LockKind = iota
	Shared
)

func (k LockKind) String() string {
	if k == Shared {
		return "shared"
	}
	return "exclusive"
}

// PackageKind distinguishes a JDK from a JRE package for lock-scoping
// purposes (kopi only installs JDKs today, but the coordinate is general).
type PackageKind string

const (
	PackageJdk PackageKind = "jdk"
	PackageJre PackageKind = "jre"
)

// PackageCoordinate uniquely identifies the package an installation lock
// protects, grounded on original_source/src/locking/package_coordinate.rs.
// Unlike the Rust version's builder-with-owned-String fields, this is a
// plain value struct — Go's idiom favors that over a fluent with_* chain for
// small data like this.
type PackageCoordinate struct {
	Distribution    string
	MajorVersion    int
	Kind            PackageKind
	Architecture    string
	OperatingSystem string
	LibcVariant     string
	JavaFXBundled   bool
	VariantTags     []string
}

// Slug produces the deterministic, filesystem- and lock-name-safe string
// identifying this coordinate, mirroring package_coordinate.rs's slug()
// exactly: distribution-major-kind[-arch][-os][-libc][-sorted-dedup-variant
// tags][-javafx].
func (c PackageCoordinate) Slug() string {
	var segments []string

	if s := paths.Sanitize(c.Distribution); s != "" {
		segments = append(segments, s)
	}
	segments = append(segments, fmt.Sprintf("%d", c.MajorVersion))
	segments = append(segments, string(c.Kind))

	if s := paths.Sanitize(c.Architecture); s != "" {
		segments = append(segments, s)
	}
	if s := paths.Sanitize(c.OperatingSystem); s != "" {
		segments = append(segments, s)
	}
	if s := paths.Sanitize(c.LibcVariant); s != "" {
		segments = append(segments, s)
	}

	extras := make(map[string]struct{}, len(c.VariantTags))
	for _, tag := range c.VariantTags {
		if s := paths.Sanitize(tag); s != "" {
			extras[s] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(extras))
	for tag := range extras {
		sorted = append(sorted, tag)
	}
	sort.Strings(sorted)
	segments = append(segments, sorted...)

	if c.JavaFXBundled {
		segments = append(segments, "javafx")
	}

	return strings.Join(segments, "-")
}

// LockScope is kopi's tagged union over the four things it ever locks,
// matching spec §4.2's LockScope variants. Go has no sum type, so this uses
// the teacher's preferred "one struct, a discriminant field, and
// zero-valued fields for variants that don't apply" shape (see RuntimeInfo
// in internal/cmd/download.go for the same pattern applied to platform
// detection).
type LockScope struct {
	kind        lockScopeKind
	coordinate  PackageCoordinate
	projectPath string
}

type lockScopeKind int

const (
	scopeInstallation lockScopeKind = iota
	scopeCacheWriter
	scopeGlobalConfig
	scopeProjectConfig
)

// Installation returns the scope for installing/removing the given package
// coordinate. Exclusive.
func Installation(coordinate PackageCoordinate) LockScope {
	return LockScope{kind: scopeInstallation, coordinate: coordinate}
}

// CacheWriter is the scope guarding writes to cache/metadata.json. Exclusive.
var CacheWriter = LockScope{kind: scopeCacheWriter}

// GlobalConfig is the scope guarding writes to <kopi_home>/config.toml.
// Exclusive.
var GlobalConfig = LockScope{kind: scopeGlobalConfig}

// ProjectConfig is the scope guarding writes to a project's .kopi-version
// file at the given path. Exclusive.
func ProjectConfig(path string) LockScope {
	return LockScope{kind: scopeProjectConfig, projectPath: path}
}

// Kind reports this scope's required lock kind. Every scope in spec §4.2 is
// exclusive; this exists so the controller's branch on lock_kind has
// somewhere real to read from instead of being hardcoded.
func (s LockScope) Kind() LockKind {
	return Exclusive
}

// Label renders a short, stable, human-readable identifier for this scope,
// used in log lines and error messages (not the lock file name itself).
func (s LockScope) Label() string {
	switch s.kind {
	case scopeInstallation:
		return "installation:" + s.coordinate.Slug()
	case scopeCacheWriter:
		return "cache-writer"
	case scopeGlobalConfig:
		return "global-config"
	case scopeProjectConfig:
		return "project-config:" + paths.Sanitize(s.projectPath)
	default:
		return "unknown"
	}
}

func (s LockScope) String() string { return s.Label() }

// LockPath resolves the scope to its lock file path under
// <kopi_home>/locks/, per spec §4.2 ("Each variant maps deterministically to
// a lock file path").
func (s LockScope) LockPath(home string) string {
	layout := paths.New(home)
	switch s.kind {
	case scopeInstallation:
		return layout.LockFile(s.coordinate.Slug())
	case scopeCacheWriter:
		return layout.LockFile("cache-writer")
	case scopeGlobalConfig:
		return layout.LockFile("global-config")
	case scopeProjectConfig:
		return layout.LockFile("project-" + paths.Sanitize(s.projectPath))
	default:
		return filepath.Join(layout.LocksDir(), "unknown.lock")
	}
}
