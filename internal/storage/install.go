package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"kopi/internal/kopierr"
	"kopi/internal/metadata"
)

// InstallationContext is the staging handle returned by
// PrepareJdkInstallation, per spec §3.
type InstallationContext struct {
	FinalPath string
	TempPath  string
}

// PrepareJdkInstallation stages a fresh temp directory for installing
// (distribution, distributionVersion). Per spec §4.8, if the final path
// already exists this returns AlreadyExists; the whole sequence (check +
// stage) is expected to run under the caller's exclusive
// locking.Installation(coordinate) lock, since this function does not
// acquire one itself.
func (r Repository) PrepareJdkInstallation(distribution, distributionVersion string) (InstallationContext, error) {
	finalPath := r.JdkInstallPath(distribution, distributionVersion)

	if _, err := os.Stat(finalPath); err == nil {
		return InstallationContext{}, kopierr.AlreadyExists(
			"JDK " + distribution + " " + distributionVersion + " at " + finalPath)
	}

	tempParent := r.layout.TmpInstallDir()
	if err := os.MkdirAll(tempParent, 0o755); err != nil {
		return InstallationContext{}, kopierr.IO("failed to create staging parent", err)
	}

	tempPath := r.layout.StagingDir(uuid.NewString())
	if err := os.MkdirAll(tempPath, 0o755); err != nil {
		return InstallationContext{}, kopierr.IO("failed to create staging directory", err)
	}

	return InstallationContext{FinalPath: finalPath, TempPath: tempPath}, nil
}

// FinalizeInstallation moves a staged install into place. Most JDK
// archives extract into a single wrapper directory (e.g. "jdk-21.0.7+6/");
// when ctx.TempPath contains exactly one subdirectory, that subdirectory
// is treated as the JDK root and renamed directly, avoiding a doubly
// nested install. Otherwise the temp directory itself becomes the install.
// On rename failure the temp tree is removed; on success, any residual
// temp directory (the now-empty wrapper's parent) is cleaned up too.
func (r Repository) FinalizeInstallation(ctx InstallationContext) (string, error) {
	if parent := filepath.Dir(ctx.FinalPath); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", kopierr.IO("failed to create install parent directory", err)
		}
	}

	entries, err := os.ReadDir(ctx.TempPath)
	if err != nil {
		return "", kopierr.IO("failed to read staging directory", err)
	}

	sourcePath := ctx.TempPath
	if len(entries) == 1 && entries[0].IsDir() {
		sourcePath = filepath.Join(ctx.TempPath, entries[0].Name())
	}

	if err := os.Rename(sourcePath, ctx.FinalPath); err != nil {
		_ = os.RemoveAll(ctx.TempPath)
		return "", kopierr.IO("failed to finalize installation", err)
	}

	if sourcePath != ctx.TempPath {
		_ = os.RemoveAll(ctx.TempPath)
	}

	return ctx.FinalPath, nil
}

// CleanupFailedInstallation removes a staging directory after an install
// attempt fails before reaching FinalizeInstallation.
func (r Repository) CleanupFailedInstallation(ctx InstallationContext) error {
	if _, err := os.Stat(ctx.TempPath); err != nil {
		return nil
	}
	if err := os.RemoveAll(ctx.TempPath); err != nil {
		return kopierr.IO("failed to clean up staging directory", err)
	}
	return nil
}

// jdkMetaSidecar is the on-disk shape of a <slug>.meta.json sidecar: a
// thin summary of the package that produced the install, enough to
// support `kopi list`/`kopi uninstall` without re-fetching from the
// metadata source.
type jdkMetaSidecar struct {
	Distribution        string `json:"distribution"`
	DistributionVersion string `json:"distribution_version"`
	PackageID           string `json:"package_id"`
	Architecture        string `json:"architecture"`
	OperatingSystem     string `json:"operating_system"`
	PackageType         string `json:"package_type"`
	ArchiveType         string `json:"archive_type"`
	SizeBytes           uint64 `json:"size_bytes"`
	JavaFXBundled       bool   `json:"javafx_bundled"`
}

// SaveJdkMetadata writes the <slug>.meta.json sidecar atomically (temp
// file + rename), mirroring the same write protocol L7's metadata cache
// uses (internal/metadata/cache.go's SaveCache).
func (r Repository) SaveJdkMetadata(distribution, distributionVersion string, pkg metadata.JdkMetadata) error {
	slug := Slug(distribution, distributionVersion)
	path := r.layout.JdkMetaFile(slug)

	sidecar := jdkMetaSidecar{
		Distribution:        distribution,
		DistributionVersion: distributionVersion,
		PackageID:           pkg.ID,
		Architecture:        string(pkg.Architecture),
		OperatingSystem:     string(pkg.OperatingSystem),
		PackageType:         string(pkg.PackageType),
		ArchiveType:         string(pkg.ArchiveType),
		SizeBytes:           pkg.SizeBytes,
		JavaFXBundled:       pkg.JavaFXBundled,
	}

	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return kopierr.IO("failed to encode jdk metadata", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kopierr.IO("failed to create jdks directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".meta-*.json.tmp")
	if err != nil {
		return kopierr.IO("failed to create temp metadata file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return kopierr.IO("failed to write metadata", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return kopierr.IO("failed to close temp metadata file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return kopierr.IO("failed to finalize metadata file", err)
	}
	return nil
}
