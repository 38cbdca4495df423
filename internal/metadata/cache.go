package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"kopi/internal/kopierr"
	"kopi/internal/platform"
	"kopi/internal/version"
)

// parseVersionLenient tolerates an empty or malformed version string in a
// cache record by falling back to the zero Version rather than failing the
// whole cache load over one bad entry.
func parseVersionLenient(s string) version.Version {
	if s == "" {
		return version.Version{}
	}
	if v, err := version.Parse(s); err == nil {
		return v
	}
	return version.Version{}
}

func platformArch(s string) platform.Architecture { return platform.Architecture(s) }
func platformOS(s string) platform.OS             { return platform.OS(s) }

// cacheFile is the on-disk shape of <kopi_home>/cache/metadata.json.
type cacheFile struct {
	UpdatedAt time.Time     `json:"updated_at"`
	Source    string        `json:"source"`
	Packages  []JdkMetadata `json:"packages"`
}

// jdkMetadataJSON mirrors JdkMetadata but with JSON-friendly field shapes for
// the parts JdkMetadata doesn't marshal cleanly on its own (version.Version
// has no json tags — it's addressed by its String()/Parse round trip).
type jdkMetadataJSON struct {
	ID                   string `json:"id"`
	Distribution         string `json:"distribution"`
	Version              string `json:"version"`
	DistributionVersion  string `json:"distribution_version"`
	Architecture         string `json:"architecture"`
	OperatingSystem      string `json:"operating_system"`
	PackageType          string `json:"package_type"`
	ArchiveType          string `json:"archive_type"`
	DownloadURL          string `json:"download_url,omitempty"`
	Checksum             string `json:"checksum,omitempty"`
	ChecksumType         string `json:"checksum_type,omitempty"`
	SizeBytes            uint64 `json:"size"`
	LibCType             string `json:"lib_c_type,omitempty"`
	JavaFXBundled        bool   `json:"javafx_bundled"`
	TermOfSupport        string `json:"term_of_support,omitempty"`
	ReleaseStatus        string `json:"release_status,omitempty"`
	LatestBuildAvailable bool   `json:"latest_build_available"`
}

func (m JdkMetadata) toJSON() jdkMetadataJSON {
	return jdkMetadataJSON{
		ID:                   m.ID,
		Distribution:         m.Distribution,
		Version:              m.Version.String(),
		DistributionVersion:  m.DistributionVersion,
		Architecture:         string(m.Architecture),
		OperatingSystem:      string(m.OperatingSystem),
		PackageType:          string(m.PackageType),
		ArchiveType:          string(m.ArchiveType),
		DownloadURL:          m.DownloadURL,
		Checksum:             m.Checksum,
		ChecksumType:         string(m.ChecksumType),
		SizeBytes:            m.SizeBytes,
		LibCType:             m.LibCType,
		JavaFXBundled:        m.JavaFXBundled,
		TermOfSupport:        m.TermOfSupport,
		ReleaseStatus:        m.ReleaseStatus,
		LatestBuildAvailable: m.LatestBuildAvailable,
	}
}

func (j jdkMetadataJSON) toMetadata() JdkMetadata {
	return JdkMetadata{
		ID:                   j.ID,
		Distribution:         j.Distribution,
		Version:              parseVersionLenient(j.Version),
		DistributionVersion:  j.DistributionVersion,
		Architecture:         platformArch(j.Architecture),
		OperatingSystem:      platformOS(j.OperatingSystem),
		PackageType:          PackageType(j.PackageType),
		ArchiveType:          ArchiveType(j.ArchiveType),
		DownloadURL:          j.DownloadURL,
		Checksum:             j.Checksum,
		ChecksumType:         ChecksumType(j.ChecksumType),
		SizeBytes:            j.SizeBytes,
		LibCType:             j.LibCType,
		JavaFXBundled:        j.JavaFXBundled,
		TermOfSupport:        j.TermOfSupport,
		ReleaseStatus:        j.ReleaseStatus,
		LatestBuildAvailable: j.LatestBuildAvailable,
	}
}

// MarshalJSON implements a custom encoding so JdkMetadata.Version (which
// has no struct tags of its own) round-trips through its canonical string
// form instead of leaking version.Version's internal *int fields.
func (m JdkMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toJSON())
}

func (m *JdkMetadata) UnmarshalJSON(data []byte) error {
	var j jdkMetadataJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*m = j.toMetadata()
	return nil
}

// LoadCache reads <kopi_home>/cache/metadata.json, tolerating a missing
// file (returns an empty, zero-time result) and a malformed/torn file
// (returns an empty result rather than erroring), per spec's "readers read
// without locking and tolerate torn reads by validating JSON" lifecycle
// note — a reader racing the writer's atomic rename should degrade to an
// empty cache and let the caller refetch, not crash.
func LoadCache(path string) ([]JdkMetadata, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, kopierr.IO("failed to read metadata cache", err)
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, time.Time{}, nil
	}
	return file.Packages, file.UpdatedAt, nil
}

// SaveCache writes path atomically (temp file + rename) under the caller's
// held CacheWriter lock, per spec §4.7/§5.
func SaveCache(path, source string, packages []JdkMetadata, updatedAt time.Time) error {
	file := cacheFile{UpdatedAt: updatedAt, Source: source, Packages: packages}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return kopierr.Wrap(kopierr.KindIO, "failed to encode metadata cache", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kopierr.IO("failed to create cache directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return kopierr.IO("failed to create temp cache file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return kopierr.IO("failed to write temp cache file", err)
	}
	if err := tmp.Close(); err != nil {
		return kopierr.IO("failed to close temp cache file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return kopierr.IO("failed to rename cache file into place", err)
	}
	return nil
}
