package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kopi/internal/version"
)

func TestSaveAndLoadCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")

	v, err := version.Parse("21.0.7")
	if err != nil {
		t.Fatalf("version.Parse: %v", err)
	}
	packages := []JdkMetadata{
		{
			ID:           "abc123",
			Distribution: "temurin",
			Version:      v,
			DownloadURL:  "https://example.com/jdk.tar.gz",
			Checksum:     "deadbeef",
			ChecksumType: ChecksumSHA256,
			SizeBytes:    12345,
		},
	}
	updatedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := SaveCache(path, "foojay", packages, updatedAt); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	loaded, loadedUpdatedAt, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d packages, want 1", len(loaded))
	}
	if loaded[0].ID != "abc123" || loaded[0].Distribution != "temurin" {
		t.Errorf("unexpected loaded package: %+v", loaded[0])
	}
	if !loaded[0].IsComplete() {
		t.Error("expected loaded package to be complete")
	}
	if !loadedUpdatedAt.Equal(updatedAt) {
		t.Errorf("updatedAt = %v, want %v", loadedUpdatedAt, updatedAt)
	}
}

func TestLoadCacheMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	packages, updatedAt, err := LoadCache(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if packages != nil {
		t.Errorf("expected nil packages, got %v", packages)
	}
	if !updatedAt.IsZero() {
		t.Errorf("expected zero time, got %v", updatedAt)
	}
}

func TestLoadCacheToleratesTornJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, []byte(`{"updated_at": "2026`), 0o644); err != nil {
		t.Fatal(err)
	}

	packages, _, err := LoadCache(path)
	if err != nil {
		t.Fatalf("LoadCache should tolerate torn JSON, got error: %v", err)
	}
	if packages != nil {
		t.Errorf("expected nil packages for torn JSON, got %v", packages)
	}
}

func TestIsCompleteRequiresDownloadURLAndChecksum(t *testing.T) {
	incomplete := JdkMetadata{ID: "x", Distribution: "temurin"}
	if incomplete.IsComplete() {
		t.Error("expected incomplete record without download_url/checksum")
	}

	complete := incomplete
	complete.DownloadURL = "https://example.com/jdk.tar.gz"
	complete.Checksum = "abc"
	if !complete.IsComplete() {
		t.Error("expected complete record with download_url and checksum set")
	}
}
