package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"kopi/internal/config"
	"kopi/internal/install"
	"kopi/internal/locking"
	"kopi/internal/metadata/foojay"
	"kopi/internal/paths"
	"kopi/internal/resolver"
	"kopi/internal/shiminstall"
	"kopi/internal/storage"
)

// newTestApp wires a real app against a throwaway kopi home, the same way
// shimlauncher_test.go builds a throwaway shim environment rather than
// mocking the layers underneath.
func newTestApp(t *testing.T) *app {
	t.Helper()
	home := t.TempDir()
	layout := paths.New(home)
	if err := layout.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	return &app{
		home:      home,
		layout:    layout,
		cfg:       cfg,
		repo:      storage.New(home),
		resolver:  resolver.New(home),
		installer: install.New(home, cfg, foojay.New()),
		shims:     shiminstall.New(home),
		source:    foojay.New(),
		lockCtrl:  locking.NewController(home, cfg.Locking),
	}
}

// installFakeJdk lays out a minimal <home>/jdks/<slug>/bin/<tool> tree,
// mirroring what storage.FinalizeInstallation would have produced.
func installFakeJdk(t *testing.T, home, distribution, version string, tools ...string) {
	t.Helper()
	slug := storage.Slug(distribution, version)
	binDir := filepath.Join(home, "jdks", slug, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, tool := range tools {
		name := tool
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSpecLabelFormatsDistributionWhenSet(t *testing.T) {
	cases := []struct {
		req  storage.VersionRequest
		want string
	}{
		{storage.VersionRequest{VersionPattern: "21"}, "21"},
		{storage.VersionRequest{VersionPattern: "17", Distribution: "corretto"}, "corretto@17"},
	}
	for _, c := range cases {
		if got := specLabel(c.req); got != c.want {
			t.Errorf("specLabel(%+v) = %q, want %q", c.req, got, c.want)
		}
	}
}

func TestCmdUseWritesProjectFileByDefault(t *testing.T) {
	a := newTestApp(t)
	cwd := t.TempDir()
	restoreCwd(t, cwd)

	if code := a.cmdUse([]string{"21"}); code != 0 {
		t.Fatalf("cmdUse exit code = %d, want 0", code)
	}

	data, err := os.ReadFile(filepath.Join(cwd, ".kopi-version"))
	if err != nil {
		t.Fatalf("reading .kopi-version: %v", err)
	}
	if string(data) != "21\n" {
		t.Errorf(".kopi-version content = %q, want %q", data, "21\n")
	}
}

func TestCmdUseWritesGlobalFileWithFlag(t *testing.T) {
	a := newTestApp(t)
	cwd := t.TempDir()
	restoreCwd(t, cwd)

	if code := a.cmdUse([]string{"--global", "temurin@17"}); code != 0 {
		t.Fatalf("cmdUse exit code = %d, want 0", code)
	}

	data, err := os.ReadFile(a.layout.GlobalVersionFile())
	if err != nil {
		t.Fatalf("reading global version file: %v", err)
	}
	if string(data) != "temurin@17\n" {
		t.Errorf("global version content = %q, want %q", data, "temurin@17\n")
	}
	if _, err := os.Stat(filepath.Join(cwd, ".kopi-version")); err == nil {
		t.Error("expected no .kopi-version written in cwd when --global is set")
	}
}

func TestCmdUseRejectsMissingSpec(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdUse(nil); code != 2 {
		t.Errorf("cmdUse([]) exit code = %d, want 2", code)
	}
}

func TestCmdUseRejectsMalformedSpec(t *testing.T) {
	a := newTestApp(t)
	cwd := t.TempDir()
	restoreCwd(t, cwd)

	if code := a.cmdUse([]string{"@@not-a-version"}); code == 0 {
		t.Error("expected non-zero exit for malformed version spec")
	}
}

func TestCmdListReportsNoJdksWhenEmpty(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdList(nil); code != 0 {
		t.Errorf("cmdList exit code = %d, want 0", code)
	}
}

func TestCmdCurrentFailsCleanlyWithNoInstalledJdk(t *testing.T) {
	a := newTestApp(t)
	cwd := t.TempDir()
	restoreCwd(t, cwd)

	code := a.cmdCurrent(nil)
	if code == 0 {
		t.Error("expected non-zero exit when no JDK is installed")
	}
}

func TestCmdWhichResolvesInstalledTool(t *testing.T) {
	a := newTestApp(t)
	installFakeJdk(t, a.home, "temurin", "21.0.1", "java", "javac")

	cwd := t.TempDir()
	restoreCwd(t, cwd)
	if err := os.WriteFile(filepath.Join(cwd, ".kopi-version"), []byte("temurin@21\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := a.cmdWhich([]string{"java"}); code != 0 {
		t.Fatalf("cmdWhich exit code = %d, want 0", code)
	}
}

func TestCmdWhichRejectsMissingTool(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdWhich(nil); code != 2 {
		t.Errorf("cmdWhich([]) exit code = %d, want 2", code)
	}
}

func TestCmdUninstallRejectsMissingSpec(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdUninstall(nil); code != 2 {
		t.Errorf("cmdUninstall([]) exit code = %d, want 2", code)
	}
}

func TestCmdUninstallReportsNotInstalled(t *testing.T) {
	a := newTestApp(t)
	code := a.cmdUninstall([]string{"21"})
	if code == 0 {
		t.Error("expected non-zero exit uninstalling a version that was never installed")
	}
}

func TestCmdShimRequiresSubcommand(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdShim(nil); code != 2 {
		t.Errorf("cmdShim([]) exit code = %d, want 2", code)
	}
	if code := a.cmdShim([]string{"bogus"}); code != 2 {
		t.Errorf("cmdShim(bogus) exit code = %d, want 2", code)
	}
}

func TestCmdShimAddListRemoveRoundTrip(t *testing.T) {
	a := newTestApp(t)

	if code := a.shimAdd([]string{"java"}); code != 0 {
		t.Fatalf("shimAdd exit code = %d, want 0", code)
	}
	shims, err := a.shims.ListShims()
	if err != nil {
		t.Fatal(err)
	}
	if len(shims) != 1 {
		t.Fatalf("ListShims after add = %v, want one entry", shims)
	}

	if code := a.shimRemove([]string{"java"}); code != 0 {
		t.Fatalf("shimRemove exit code = %d, want 0", code)
	}
	shims, err = a.shims.ListShims()
	if err != nil {
		t.Fatal(err)
	}
	if len(shims) != 0 {
		t.Errorf("ListShims after remove = %v, want none", shims)
	}
}

func TestCmdCacheRequiresSubcommand(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdCache(nil); code != 2 {
		t.Errorf("cmdCache([]) exit code = %d, want 2", code)
	}
}

func TestCmdCacheInfoReportsEmptyCache(t *testing.T) {
	a := newTestApp(t)
	if code := a.cacheInfo(nil); code != 0 {
		t.Errorf("cacheInfo exit code = %d, want 0", code)
	}
}

func TestCmdCacheSearchReportsNoMatchesWithEmptyCache(t *testing.T) {
	a := newTestApp(t)
	if code := a.cacheSearch(nil); code != 0 {
		t.Errorf("cacheSearch exit code = %d, want 0", code)
	}
}

func TestCmdSetupIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	if code := a.cmdSetup(nil); code != 0 {
		t.Fatalf("cmdSetup first run exit code = %d, want 0", code)
	}
	if _, err := os.Stat(a.layout.ConfigFile()); err != nil {
		t.Errorf("expected config.toml to be written: %v", err)
	}
	if code := a.cmdSetup(nil); code != 0 {
		t.Fatalf("cmdSetup second run exit code = %d, want 0", code)
	}
}

func TestRunUnknownCommandReturnsUsageExitCode(t *testing.T) {
	t.Setenv("KOPI_HOME", t.TempDir())
	if code := run([]string{"kopi", "bogus"}); code != 2 {
		t.Errorf("run(bogus) exit code = %d, want 2", code)
	}
}

func TestRunWithNoArgsPrintsUsage(t *testing.T) {
	if code := run([]string{"kopi"}); code != 1 {
		t.Errorf("run() exit code = %d, want 1", code)
	}
}

// restoreCwd chdirs into dir for the duration of the test and restores the
// original working directory on cleanup, since several subcommands resolve
// relative to os.Getwd().
func restoreCwd(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

