package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"kopi/internal/kopierr"
)

// StorageConfig configures L8/L10's disk-space precheck and default
// download domain allowlist, per spec §6's [storage] section.
type StorageConfig struct {
	MinDiskSpaceMB  uint64   `toml:"min_disk_space_mb"`
	TrustedDomains  []string `toml:"trusted_domains"`
}

// DefaultStorageConfig matches spec §6's sample: 500 MiB minimum, and the
// two metadata vendors kopi talks to out of the box.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		MinDiskSpaceMB: 500,
		TrustedDomains: []string{"api.foojay.io", "github.com", "objects.githubusercontent.com"},
	}
}

// MinDiskSpaceMBOrDefault returns the configured threshold, defaulting when
// unset.
func (c StorageConfig) MinDiskSpaceMBOrDefault() uint64 {
	if c.MinDiskSpaceMB == 0 {
		return DefaultStorageConfig().MinDiskSpaceMB
	}
	return c.MinDiskSpaceMB
}

// IsTrustedHost reports whether host (or any of its parent domains) appears
// in the allowlist, per spec §4.10's "verify HTTPS and trusted-domain
// policy" step. An empty allowlist (e.g. a config with no [storage]
// section) falls back to DefaultStorageConfig's list.
func (c StorageConfig) IsTrustedHost(host string) bool {
	domains := c.TrustedDomains
	if len(domains) == 0 {
		domains = DefaultStorageConfig().TrustedDomains
	}
	host = strings.ToLower(host)
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// AutoInstallConfig configures the shim launcher's (L11) auto-install
// fallback, per spec §6's [auto_install] section.
type AutoInstallConfig struct {
	Enabled     bool   `toml:"enabled"`
	Prompt      bool   `toml:"prompt"`
	TimeoutSecs uint64 `toml:"timeout_secs"`
}

// DefaultAutoInstallConfig mirrors spec §6: disabled, prompting, 30s.
func DefaultAutoInstallConfig() AutoInstallConfig {
	return AutoInstallConfig{Enabled: false, Prompt: true, TimeoutSecs: 30}
}

func (c AutoInstallConfig) Timeout() time.Duration {
	if c.TimeoutSecs == 0 {
		return time.Duration(DefaultAutoInstallConfig().TimeoutSecs) * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ShimsConfig configures L12's create-on-install behavior.
type ShimsConfig struct {
	AutoCreateShims bool `toml:"auto_create_shims"`
}

func DefaultShimsConfig() ShimsConfig {
	return ShimsConfig{AutoCreateShims: true}
}

// KopiConfig is the full <kopi_home>/config.toml schema from spec §6.
// Unknown keys are ignored by toml.Decode itself; parse failure is
// surfaced as InvalidConfig by Load.
type KopiConfig struct {
	DefaultDistribution string             `toml:"default_distribution"`
	Storage             StorageConfig      `toml:"storage"`
	AutoInstall         AutoInstallConfig  `toml:"auto_install"`
	Shims               ShimsConfig        `toml:"shims"`
	Locking             LockingConfig      `toml:"locking"`
}

// Default returns the config a fresh kopi_home starts with, matching
// spec §6's sample config.toml verbatim.
func Default() KopiConfig {
	return KopiConfig{
		DefaultDistribution: "temurin",
		Storage:             DefaultStorageConfig(),
		AutoInstall:         DefaultAutoInstallConfig(),
		Shims:               DefaultShimsConfig(),
		Locking:             DefaultLockingConfig(),
	}
}

// Load reads and decodes path, returning Default() when the file is
// missing (a fresh kopi_home has no config.toml until one is written),
// and InvalidConfig on a parse failure rather than propagating the raw
// toml error, per spec §6's "parse failure -> InvalidConfig" rule. The
// environment overlay applies in both the missing-file and decoded cases.
func Load(path string) (KopiConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnvOverlay(cfg), nil
		}
		return KopiConfig{}, kopierr.IO("failed to read config file", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return KopiConfig{}, kopierr.InvalidConfig(err.Error())
	}
	return applyEnvOverlay(cfg), nil
}

// Save writes cfg to path as TOML, creating the parent directory if
// needed. Callers are expected to hold locking.GlobalConfig while calling
// this, per spec §4.2.
func Save(path string, cfg KopiConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return kopierr.IO("failed to create config directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return kopierr.IO("failed to create config file", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return kopierr.IO("failed to encode config file", err)
	}
	return nil
}

// applyEnvOverlay lets KOPI_AUTO_INSTALL__ENABLED,
// KOPI_AUTO_INSTALL__PROMPT and KOPI_AUTO_INSTALL__TIMEOUT_SECS override
// the file on a per-process basis, per spec §6's environment variable
// surface. A value that does not parse leaves the file's setting in place.
func applyEnvOverlay(cfg KopiConfig) KopiConfig {
	if v := os.Getenv("KOPI_AUTO_INSTALL__ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoInstall.Enabled = b
		}
	}
	if v := os.Getenv("KOPI_AUTO_INSTALL__PROMPT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoInstall.Prompt = b
		}
	}
	if v := os.Getenv("KOPI_AUTO_INSTALL__TIMEOUT_SECS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.AutoInstall.TimeoutSecs = n
		}
	}
	return cfg
}
