package foojay

import (
	"fmt"
	"strings"
	"time"

	"kopi/internal/metadata"
	"kopi/internal/platform"
	"kopi/internal/version"
)

// Source adapts Client to the metadata.Source contract, converting the
// wire Package/PackageInfo shapes into metadata.JdkMetadata, following
// original_source/src/metadata/foojay.rs's
// convert_package_to_metadata_incomplete.
type Source struct {
	client *Client
}

// New builds a Source against the production Disco API.
func New() *Source {
	return &Source{client: NewClient()}
}

// NewWithBaseURL builds a Source against an alternate base, for tests.
func NewWithBaseURL(baseURL string) *Source {
	return &Source{client: NewClient().WithBaseURL(baseURL)}
}

func (s *Source) ID() string   { return "foojay" }
func (s *Source) Name() string { return "Foojay Discovery API" }

func (s *Source) IsAvailable() bool {
	_, err := s.client.GetDistributions()
	return err == nil
}

// archiveQueryTypes restricts every list query to the archive formats kopi
// knows how to extract (internal/archive), matching the Rust source's own
// tar.gz/zip/tgz/tar filter.
var archiveQueryTypes = []string{"tar.gz", "zip", "tgz", "tar"}

// directlyDownloadable is always requested: kopi has no interceding
// license-click flow, so a package the API can't serve by direct URL is
// useless to it, per spec §4.10's package-selection filter.
var directlyDownloadable = func() *bool { b := true; return &b }()

func (s *Source) FetchAll(progress metadata.ProgressFunc) ([]metadata.JdkMetadata, error) {
	progress("connecting to foojay API")
	packages, err := s.client.GetPackages(Query{ArchiveTypes: archiveQueryTypes, DirectlyDownloadable: directlyDownloadable})
	if err != nil {
		return nil, err
	}
	progress(fmt.Sprintf("retrieved %d packages from foojay", len(packages)))
	return convertAll(packages)
}

func (s *Source) FetchDistribution(distribution string, progress metadata.ProgressFunc) ([]metadata.JdkMetadata, error) {
	progress(fmt.Sprintf("fetching %s packages from foojay", distribution))
	packages, err := s.client.GetPackages(Query{Distribution: distribution, ArchiveTypes: archiveQueryTypes, DirectlyDownloadable: directlyDownloadable})
	if err != nil {
		return nil, err
	}
	progress(fmt.Sprintf("retrieved %d %s packages from foojay", len(packages), distribution))
	return convertAll(packages)
}

func (s *Source) FetchPackageDetails(packageID string, progress metadata.ProgressFunc) (metadata.PackageDetails, error) {
	progress(fmt.Sprintf("fetching package details for %s", packageID))
	info, err := s.client.GetPackageByID(packageID)
	if err != nil {
		return metadata.PackageDetails{}, err
	}

	checksumType, _ := metadata.ParseChecksumType(info.ChecksumType)
	return metadata.PackageDetails{
		DownloadURL:  info.DirectDownloadURI,
		Checksum:     info.Checksum,
		ChecksumType: checksumType,
	}, nil
}

// LastUpdated is unsupported: the Disco API doesn't expose a last-update
// timestamp, per original_source/src/metadata/foojay.rs.
func (s *Source) LastUpdated() (time.Time, bool) {
	return time.Time{}, false
}

func convertAll(packages []Package) ([]metadata.JdkMetadata, error) {
	out := make([]metadata.JdkMetadata, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, convertIncomplete(pkg))
	}
	return out, nil
}

// convertIncomplete builds a JdkMetadata with no DownloadURL/Checksum: the
// Disco API's list endpoints never return those, per spec §4.7 — callers
// must call FetchPackageDetails before downloading.
func convertIncomplete(pkg Package) metadata.JdkMetadata {
	v, err := version.Parse(pkg.JavaVersion)
	if err != nil {
		v = version.Version{Major: pkg.MajorVersion}
	}

	latestBuild := false
	if pkg.LatestBuildAvailable != nil {
		latestBuild = *pkg.LatestBuildAvailable
	}

	return metadata.JdkMetadata{
		ID:                   pkg.ID,
		Distribution:         pkg.Distribution,
		Version:              v,
		DistributionVersion:  pkg.DistributionVersion,
		Architecture:         archFromPackage(pkg),
		OperatingSystem:      platform.OS(pkg.OperatingSystem),
		PackageType:          metadata.PackageTypeJDK,
		ArchiveType:          metadata.ArchiveType(pkg.ArchiveType),
		SizeBytes:            pkg.Size,
		LibCType:             pkg.LibCType,
		JavaFXBundled:        pkg.JavaFXBundled,
		TermOfSupport:        pkg.TermOfSupport,
		ReleaseStatus:        pkg.ReleaseStatus,
		LatestBuildAvailable: latestBuild,
	}
}

// archFromPackage recovers the architecture the Disco API's package list
// response omits from its own filename, since /packages doesn't echo the
// architecture query parameter back in the body — a known quirk the
// original client works around the same way (parse_architecture_from_filename).
func archFromPackage(pkg Package) platform.Architecture {
	switch {
	case containsAny(pkg.Filename, "x64", "x86_64", "amd64"):
		return platform.ArchX64
	case containsAny(pkg.Filename, "aarch64", "arm64"):
		return platform.ArchAarch64
	case containsAny(pkg.Filename, "x86", "i586", "i686"):
		return platform.ArchX86
	case containsAny(pkg.Filename, "ppc64le"):
		return platform.ArchPpc64le
	case containsAny(pkg.Filename, "ppc64"):
		return platform.ArchPpc64
	case containsAny(pkg.Filename, "s390x"):
		return platform.ArchS390x
	default:
		return platform.ArchX64
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
