// Package storage implements kopi's local storage repository (L8): the
// on-disk layout of installed JDKs under <kopi_home>/jdks/, the
// staging/finalize protocol that keeps half-installed artifacts invisible,
// and removal with retries. Grounded on original_source/src/storage/
// {installation,disk_space,disk_probe}.rs, adapted into the teacher's
// idiom of plain structs and explicit error returns — the directory
// scanning and slug parsing mirror internal/cmd/remove.go's
// findJDKForRemoval/extractVersionFromDirName, generalized from the
// teacher's ad hoc prefix-stripping to the sanitize-and-split scheme
// internal/paths.Sanitize already establishes.
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kopi/internal/kopierr"
	"kopi/internal/metadata"
	"kopi/internal/paths"
	"kopi/internal/version"
)

// InstalledJdk is what lives on disk, per spec §3.
type InstalledJdk struct {
	Distribution        string
	DistributionVersion string
	Path                string
	MetadataSidecarPath string
}

// VersionRequest is the parsed form of a user-facing version spec like
// "21", "corretto@17", "temurin@21.0.7", per spec §3. The resolver (L9) is
// its primary producer; the repository (L8) is its primary consumer via
// FindMatchingJdks.
type VersionRequest struct {
	VersionPattern string
	Distribution   string // empty means unset
	PackageType    metadata.PackageType
}

// ParseVersionRequest parses "21", "corretto@17" or "temurin@21.0.7" into a
// VersionRequest: an optional "<distribution>@" prefix followed by the
// version pattern, matching spec §3's examples exactly.
func ParseVersionRequest(s string) (VersionRequest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VersionRequest{}, kopierr.InvalidVersionFormat(s)
	}

	if idx := strings.IndexByte(s, '@'); idx != -1 {
		dist := s[:idx]
		pattern := s[idx+1:]
		if dist == "" || pattern == "" {
			return VersionRequest{}, kopierr.InvalidVersionFormat(s)
		}
		return VersionRequest{VersionPattern: pattern, Distribution: dist}, nil
	}

	return VersionRequest{VersionPattern: s}, nil
}

// Repository owns the on-disk jdks/ tree rooted at a kopi_home.
type Repository struct {
	layout paths.Layout
}

// New builds a Repository rooted at home.
func New(home string) Repository {
	return Repository{layout: paths.New(home)}
}

// ListInstalledJdks scans jdks/, skipping dotfiles/dirs (including the
// .tmp staging directory, per spec §3's invariant that it must never be
// listed as installed), and pairs each directory with its sidecar
// <slug>.meta.json when present. Returned in distribution-then-version
// order.
func (r Repository) ListInstalledJdks() ([]InstalledJdk, error) {
	entries, err := os.ReadDir(r.layout.JdksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kopierr.IO("failed to read jdks directory", err)
	}

	var out []InstalledJdk
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		slug := entry.Name()
		dist, distVersion, ok := splitSlug(slug)
		if !ok {
			continue
		}

		jdk := InstalledJdk{
			Distribution:         dist,
			DistributionVersion:  distVersion,
			Path:                 r.layout.JdkDir(slug),
			MetadataSidecarPath:  r.layout.JdkMetaFile(slug),
		}
		if _, err := os.Stat(jdk.MetadataSidecarPath); err != nil {
			jdk.MetadataSidecarPath = ""
		}
		out = append(out, jdk)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distribution != out[j].Distribution {
			return out[i].Distribution < out[j].Distribution
		}
		vi, erri := version.Parse(out[i].DistributionVersion)
		vj, errj := version.Parse(out[j].DistributionVersion)
		if erri != nil || errj != nil {
			return out[i].DistributionVersion < out[j].DistributionVersion
		}
		return version.Less(vi, vj)
	})
	return out, nil
}

// FindMatchingJdks filters ListInstalledJdks's result against req: the
// distribution, when set, must match case-insensitively; the version must
// match req's pattern per §4.2's optional-component rule; package_type,
// when set, must match. Results are returned in ascending version order.
//
// kopi only ever installs JDK packages (see locking.PackageJdk), so every
// InstalledJdk is treated as PackageType "jdk"; the sidecar's package_type
// field is not read here, and a non-empty req.PackageType other than "jdk"
// simply yields no matches.
func (r Repository) FindMatchingJdks(req VersionRequest) ([]InstalledJdk, error) {
	all, err := r.ListInstalledJdks()
	if err != nil {
		return nil, err
	}

	var out []InstalledJdk
	for _, jdk := range all {
		if req.Distribution != "" && !strings.EqualFold(req.Distribution, jdk.Distribution) {
			continue
		}
		if req.PackageType != "" && req.PackageType != metadata.PackageTypeJDK {
			continue
		}
		v, err := version.Parse(jdk.DistributionVersion)
		if err != nil {
			continue
		}
		if req.VersionPattern != "" && !v.MatchesPattern(req.VersionPattern) {
			continue
		}
		out = append(out, jdk)
	}

	sort.Slice(out, func(i, j int) bool {
		vi, _ := version.Parse(out[i].DistributionVersion)
		vj, _ := version.Parse(out[j].DistributionVersion)
		return version.Less(vi, vj)
	})
	return out, nil
}

// JdkInstallPath computes the deterministic install directory for a
// (distribution, distribution_version) pair, per spec §4.8.
func (r Repository) JdkInstallPath(distribution, distributionVersion string) string {
	return r.layout.JdkDir(Slug(distribution, distributionVersion))
}

// Slug builds the <slug> component spec §4.8 names: sanitize(dist)
// "-" sanitize(dist_version).
func Slug(distribution, distributionVersion string) string {
	return paths.Sanitize(distribution) + "-" + paths.Sanitize(distributionVersion)
}

// splitSlug recovers (distribution, distribution_version) from a slug,
// splitting on the last "-" that precedes a version-like token (one
// starting with a digit), per spec §4.8's "splitting on the last '-' that
// precedes a version-like token" rule. This resolves the ambiguity a naive
// first-dash split would hit on distributions like "sap-machine" or
// "semeru-certified", whose own names contain dashes.
func splitSlug(slug string) (distribution, distributionVersion string, ok bool) {
	parts := strings.Split(slug, "-")
	for i := len(parts) - 1; i > 0; i-- {
		if isVersionLike(parts[i]) {
			return strings.Join(parts[:i], "-"), strings.Join(parts[i:], "-"), true
		}
	}
	return "", "", false
}

func isVersionLike(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// JoinPath exists so callers outside this package (the installer, the
// shim launcher) can resolve a JDK's home directory from a distribution
// and distribution_version without importing internal/paths directly.
func (r Repository) JoinPath(elem ...string) string {
	return filepath.Join(append([]string{r.layout.Home}, elem...)...)
}
