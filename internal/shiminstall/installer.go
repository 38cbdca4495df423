package shiminstall

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"kopi/internal/kopierr"
	"kopi/internal/paths"
)

// Problem is one broken shim found by VerifyShims, paired with why.
type Problem struct {
	Name   string
	Reason string
}

// Installer creates, removes, lists, verifies and repairs the per-tool
// shims under <kopi_home>/shims/, per spec §4.12. Grounded on
// original_source/src/shim/installer.rs:ShimInstaller.
type Installer struct {
	layout paths.Layout
}

// New builds an Installer rooted at home.
func New(home string) *Installer {
	return &Installer{layout: paths.New(home)}
}

// InitShimsDirectory creates shims/ if absent.
func (i *Installer) InitShimsDirectory() error {
	if err := os.MkdirAll(i.layout.ShimsDir(), 0o755); err != nil {
		return kopierr.IO("failed to create shims directory", err)
	}
	return nil
}

// CreateShim installs a shim for tool, failing with AlreadyExists unless
// force is set, per spec §4.12.
func (i *Installer) CreateShim(tool string, force bool) error {
	if err := i.InitShimsDirectory(); err != nil {
		return err
	}

	shimPath := i.layout.ShimPath(tool)
	if _, err := os.Lstat(shimPath); err == nil {
		if !force {
			return kopierr.AlreadyExists(fmt.Sprintf("shim for %q at %s", tool, shimPath))
		}
		if err := os.Remove(shimPath); err != nil {
			return kopierr.IO(fmt.Sprintf("failed to remove existing shim for %q", tool), err)
		}
	}

	return i.createShimEntry(shimPath)
}

// RemoveShim removes tool's shim; missing is an error, per spec §4.12.
func (i *Installer) RemoveShim(tool string) error {
	shimPath := i.layout.ShimPath(tool)
	if _, err := os.Lstat(shimPath); err != nil {
		return kopierr.Validation(fmt.Sprintf("shim for %q does not exist", tool))
	}
	if err := os.Remove(shimPath); err != nil {
		return kopierr.IO(fmt.Sprintf("failed to remove shim for %q", tool), err)
	}
	return nil
}

// ListShims enumerates shims/, stripped of extension, sorted, per spec
// §4.12.
func (i *Installer) ListShims() ([]string, error) {
	entries, err := os.ReadDir(i.layout.ShimsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kopierr.IO("failed to read shims directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names, nil
}

// VerifyShims checks every shim in shims/ and returns a Problem for each
// one that fails the platform-specific sanity check (Unix: is a symlink
// to something ending in kopi-shim that resolves; Windows: is a file
// ≥1 KiB starting with "MZ"), per spec §4.12 and §8's boundary behaviors.
func (i *Installer) VerifyShims() ([]Problem, error) {
	entries, err := os.ReadDir(i.layout.ShimsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kopierr.IO("failed to read shims directory", err)
	}

	var problems []Problem
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		path := filepath.Join(i.layout.ShimsDir(), e.Name())
		if err := verifyShimEntry(path); err != nil {
			problems = append(problems, Problem{Name: name, Reason: err.Error()})
		}
	}
	return problems, nil
}

// RepairShim removes and recreates tool's shim.
func (i *Installer) RepairShim(tool string) error {
	shimPath := i.layout.ShimPath(tool)
	if _, err := os.Lstat(shimPath); err == nil {
		if err := os.Remove(shimPath); err != nil {
			return kopierr.IO(fmt.Sprintf("failed to remove broken shim for %q", tool), err)
		}
	}
	return i.createShimEntry(shimPath)
}

// CreateMissingShims creates a shim for every tool in tools that doesn't
// already have one, returning the ones actually created.
func (i *Installer) CreateMissingShims(tools []string) ([]string, error) {
	if err := i.InitShimsDirectory(); err != nil {
		return nil, err
	}

	var created []string
	for _, tool := range tools {
		shimPath := i.layout.ShimPath(tool)
		if _, err := os.Lstat(shimPath); err == nil {
			continue
		}
		if err := i.createShimEntry(shimPath); err != nil {
			return created, err
		}
		created = append(created, tool)
	}
	return created, nil
}

// createShimEntry locates kopi-shim and delegates to the platform-specific
// entry creation (symlink on Unix, copy on Windows).
func (i *Installer) createShimEntry(shimPath string) error {
	kopiShimPath, err := i.findKopiShimBinary()
	if err != nil {
		return err
	}
	if err := createShimFile(kopiShimPath, shimPath); err != nil {
		return kopierr.IO(fmt.Sprintf("failed to create shim at %s", shimPath), err)
	}
	return nil
}

// findKopiShimBinary looks for kopi-shim at <kopi_home>/bin/kopi-shim,
// then next to the current executable, then on PATH, per spec §4.12 /
// original_source's find_kopi_shim_binary.
func (i *Installer) findKopiShimBinary() (string, error) {
	if info, err := os.Stat(i.layout.KopiShimBinary()); err == nil && !info.IsDir() {
		return i.layout.KopiShimBinary(), nil
	}

	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), filepath.Base(i.layout.KopiShimBinary()))
		if info, statErr := os.Stat(sibling); statErr == nil && !info.IsDir() {
			return sibling, nil
		}
	}

	if p, err := exec.LookPath("kopi-shim"); err == nil {
		return p, nil
	}

	return "", kopierr.Validation("kopi-shim binary not found; run `kopi setup` first")
}
