// Package metadata defines the shared JDK metadata model and the
// MetadataSource contract (L7) that the foojay and httpsource clients
// implement, generalizing the teacher's per-vendor provider packages
// (internal/providers/{adoptium,azul,liberica}) — each of which hand-rolls
// its own response struct and entry type — into one vendor-neutral record
// plus a common interface, per original_source/src/metadata/source.rs.
package metadata

import (
	"strings"
	"time"

	"kopi/internal/platform"
	"kopi/internal/version"
)

// ChecksumType names the supported checksum algorithms a package record may
// carry, mirroring the Rust ChecksumType enum.
type ChecksumType string

const (
	ChecksumSHA256 ChecksumType = "sha256"
	ChecksumSHA512 ChecksumType = "sha512"
	ChecksumSHA1   ChecksumType = "sha1"
	ChecksumMD5    ChecksumType = "md5"
)

// ParseChecksumType maps a vendor string (case-insensitively) to a
// ChecksumType, returning false for anything unrecognized instead of
// guessing — mirroring foojay.rs's fetch_package_details match arm.
func ParseChecksumType(s string) (ChecksumType, bool) {
	switch ChecksumType(strings.ToLower(s)) {
	case ChecksumSHA256, ChecksumSHA512, ChecksumSHA1, ChecksumMD5:
		return ChecksumType(strings.ToLower(s)), true
	default:
		return "", false
	}
}

// PackageType distinguishes a JDK from a JRE distribution, per spec §3.
type PackageType string

const (
	PackageTypeJDK PackageType = "jdk"
	PackageTypeJRE PackageType = "jre"
)

// ArchiveType names the archive format a package ships in.
type ArchiveType string

const (
	ArchiveTarGz ArchiveType = "tar.gz"
	ArchiveTgz   ArchiveType = "tgz"
	ArchiveZip   ArchiveType = "zip"
)

// JdkMetadata is a resolved, possibly-incomplete package record, per spec
// §3. A record fetched from foojay's list endpoints is incomplete until
// FetchPackageDetails fills in DownloadURL/Checksum; a record from an HTTP
// bundle is always complete.
type JdkMetadata struct {
	ID                    string
	Distribution          string
	Version               version.Version
	DistributionVersion   string
	Architecture          platform.Architecture
	OperatingSystem       platform.OS
	PackageType           PackageType
	ArchiveType           ArchiveType
	DownloadURL           string
	Checksum              string
	ChecksumType          ChecksumType
	SizeBytes             uint64
	LibCType              string
	JavaFXBundled         bool
	TermOfSupport         string
	ReleaseStatus         string
	LatestBuildAvailable  bool
}

// IsComplete reports whether this record has everything Download needs,
// per spec §3's "a record is complete iff it has download_url and
// checksum" invariant.
func (m JdkMetadata) IsComplete() bool {
	return m.DownloadURL != "" && m.Checksum != ""
}

// PackageDetails is what FetchPackageDetails fills a record's missing
// fields with, matching original_source/src/metadata/source.rs's
// PackageDetails.
type PackageDetails struct {
	DownloadURL  string
	Checksum     string
	ChecksumType ChecksumType
}

// ProgressFunc receives human-readable progress messages during a fetch, a
// direct analog of the Rust trait's `&mut dyn ProgressIndicator` but shaped
// as a plain function value since Go favors that over a single-method
// interface for callback-shaped APIs (see download.ProgressReporter for the
// richer multi-method case, used where numeric totals matter too).
type ProgressFunc func(message string)

// NopProgress discards every message; the value callers pass when they
// don't want progress output.
func NopProgress(string) {}

// Source is the per-vendor metadata backend contract from spec §4.7.
type Source interface {
	ID() string
	Name() string
	IsAvailable() bool
	FetchAll(progress ProgressFunc) ([]JdkMetadata, error)
	FetchDistribution(distribution string, progress ProgressFunc) ([]JdkMetadata, error)
	FetchPackageDetails(packageID string, progress ProgressFunc) (PackageDetails, error)
	LastUpdated() (time.Time, bool)
}
