package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultDistribution != "temurin" {
		t.Errorf("DefaultDistribution = %q, want temurin", cfg.DefaultDistribution)
	}
	if cfg.Storage.MinDiskSpaceMBOrDefault() != 500 {
		t.Errorf("MinDiskSpaceMBOrDefault = %d, want 500", cfg.Storage.MinDiskSpaceMBOrDefault())
	}
}

func TestLoadParsesRecognizedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
default_distribution = "corretto"

[storage]
min_disk_space_mb = 1024

[auto_install]
enabled = true
prompt = false
timeout_secs = 10

[shims]
auto_create_shims = false

[locking]
mode = "fallback"
timeout_secs = 60
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultDistribution != "corretto" {
		t.Errorf("DefaultDistribution = %q", cfg.DefaultDistribution)
	}
	if cfg.Storage.MinDiskSpaceMB != 1024 {
		t.Errorf("MinDiskSpaceMB = %d", cfg.Storage.MinDiskSpaceMB)
	}
	if !cfg.AutoInstall.Enabled || cfg.AutoInstall.Prompt {
		t.Errorf("AutoInstall = %+v", cfg.AutoInstall)
	}
	if cfg.Shims.AutoCreateShims {
		t.Error("expected AutoCreateShims false")
	}
	if cfg.Locking.Mode != LockingModeFallback {
		t.Errorf("Locking.Mode = %q", cfg.Locking.Mode)
	}
}

func TestLoadUnknownKeysAreIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "default_distribution = \"temurin\"\nunknown_future_key = true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load should ignore unknown keys: %v", err)
	}
}

func TestLoadMalformedTomlReturnsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("this is not = valid [[ toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected InvalidConfig error")
	}
}

func TestEnvOverlayOverridesAutoInstall(t *testing.T) {
	t.Setenv("KOPI_AUTO_INSTALL__ENABLED", "true")
	t.Setenv("KOPI_AUTO_INSTALL__TIMEOUT_SECS", "5")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AutoInstall.Enabled {
		t.Error("expected env overlay to enable auto-install")
	}
	if cfg.AutoInstall.TimeoutSecs != 5 {
		t.Errorf("TimeoutSecs = %d, want 5", cfg.AutoInstall.TimeoutSecs)
	}
}

func TestIsTrustedHostMatchesSuffixes(t *testing.T) {
	cfg := DefaultStorageConfig()
	if !cfg.IsTrustedHost("api.foojay.io") {
		t.Error("expected api.foojay.io to be trusted")
	}
	if cfg.IsTrustedHost("evil.com") {
		t.Error("expected evil.com to be untrusted")
	}
	if !cfg.IsTrustedHost("objects.githubusercontent.com") {
		t.Error("expected objects.githubusercontent.com to be trusted")
	}
}
