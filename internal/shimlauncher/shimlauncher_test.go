package shimlauncher

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"kopi/internal/kopierr"
	"kopi/internal/storage"
)

func withCapturedStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := stderr
	stderr = &buf
	t.Cleanup(func() { stderr = orig })
	return &buf
}

func withStubExec(t *testing.T) *[]string {
	t.Helper()
	var calls []string
	orig := execTool
	execTool = func(toolPath string, args []string) error {
		calls = append(calls, toolPath+" "+strings.Join(args, " "))
		return nil
	}
	t.Cleanup(func() { execTool = orig })
	return &calls
}

// withFakeKopiOnPath puts a stand-in kopi binary on PATH, so
// locateKopiBinary succeeds and the auto-install branch reaches runInstall.
func withFakeKopiOnPath(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	name := "kopi"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
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

func TestToolNameFromArgv0LowercasesAndStripsExt(t *testing.T) {
	cases := map[string]string{
		"/usr/local/bin/java":      "java",
		"/home/u/.kopi/shims/JAVA": "java",
		"javac.exe":                "javac",
		"C:\\kopi\\shims\\Java.EXE": "java",
	}
	for in, want := range cases {
		got, err := toolNameFromArgv0(in)
		if err != nil {
			t.Fatalf("toolNameFromArgv0(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("toolNameFromArgv0(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunWithNoConfiguredVersionReturnsExitCode3(t *testing.T) {
	home := t.TempDir()
	workdir := t.TempDir()
	buf := withCapturedStderr(t)
	withStubExec(t)

	t.Setenv("KOPI_JAVA_VERSION", "")
	orig, _ := os.Getwd()
	if err := os.Chdir(workdir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code := l.Run([]string{"java"})
	if code != 3 {
		t.Errorf("Run exit code = %d, want 3", code)
	}
	if !strings.Contains(buf.String(), "No Java version configured") {
		t.Errorf("stderr = %q, want a No Java version configured message", buf.String())
	}
}

func TestRunWithMatchingJdkExecsTool(t *testing.T) {
	home := t.TempDir()
	installFakeJdk(t, home, "temurin", "21.0.7", "java", "javac")

	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")
	calls := withStubExec(t)

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code := l.Run([]string{"/whatever/path/java", "-version"})
	if code != 0 {
		t.Errorf("Run exit code = %d, want 0", code)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected exactly one exec call, got %v", *calls)
	}
	if !strings.Contains((*calls)[0], filepath.Join("bin", "java")) {
		t.Errorf("exec call %q did not target bin/java", (*calls)[0])
	}
	if !strings.HasSuffix((*calls)[0], "-version") {
		t.Errorf("exec call %q did not forward -version", (*calls)[0])
	}
}

func TestRunPicksGreatestVersionOnMultipleMatches(t *testing.T) {
	home := t.TempDir()
	installFakeJdk(t, home, "temurin", "21.0.6", "java")
	installFakeJdk(t, home, "temurin", "21.0.7", "java")

	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")
	calls := withStubExec(t)

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if code := l.Run([]string{"java"}); code != 0 {
		t.Fatalf("Run exit code = %d, want 0", code)
	}
	if !strings.Contains((*calls)[0], "21.0.7") {
		t.Errorf("exec call %q did not target the greatest version 21.0.7", (*calls)[0])
	}
}

func TestRunToolNotFoundReturnsExitCode5WithAvailableTools(t *testing.T) {
	home := t.TempDir()
	installFakeJdk(t, home, "temurin", "21.0.7", "java")

	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")
	buf := withCapturedStderr(t)
	withStubExec(t)

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code := l.Run([]string{"javap"})
	if code != 5 {
		t.Errorf("Run exit code = %d, want 5", code)
	}
	if !strings.Contains(buf.String(), "java") {
		t.Errorf("stderr = %q, want it to list java as an available tool", buf.String())
	}
}

func TestRunWithoutAutoInstallReturnsJdkNotInstalled(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")
	withCapturedStderr(t)
	withStubExec(t)

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	code := l.Run([]string{"java"})
	if code != 4 {
		t.Errorf("Run exit code = %d, want 4 (JdkNotInstalled)", code)
	}
}

func TestRunAutoInstallsAndReExecsOnSuccess(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")
	withCapturedStderr(t)
	calls := withStubExec(t)
	withFakeKopiOnPath(t)

	origRunInstall := runInstall
	runInstall = func(kopiPath, spec string, timeout time.Duration) error {
		installFakeJdk(t, home, "temurin", "21.0.7", "java")
		return nil
	}
	t.Cleanup(func() { runInstall = origRunInstall })

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.cfg.AutoInstall.Enabled = true

	code := l.Run([]string{"java"})
	if code != 0 {
		t.Errorf("Run exit code = %d, want 0 after successful auto-install", code)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one exec call after auto-install, got %v", *calls)
	}
}

func TestRunAutoInstallFailureReportsReason(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KOPI_JAVA_VERSION", "temurin@21")
	buf := withCapturedStderr(t)
	withStubExec(t)
	withFakeKopiOnPath(t)

	origRunInstall := runInstall
	runInstall = func(kopiPath, spec string, timeout time.Duration) error {
		return errors.New("network unreachable")
	}
	t.Cleanup(func() { runInstall = origRunInstall })

	l, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.cfg.AutoInstall.Enabled = true

	code := l.Run([]string{"java"})
	if code != 4 {
		t.Errorf("Run exit code = %d, want 4", code)
	}
	if !strings.Contains(buf.String(), "network unreachable") {
		t.Errorf("stderr = %q, want the auto-install failure reason", buf.String())
	}
}

func TestResolveToolPathUsesMacBundleLayout(t *testing.T) {
	home := t.TempDir()
	jdkRoot := filepath.Join(home, "jdks", "temurin-21.0.7")
	binDir := filepath.Join(jdkRoot, "Contents", "Home", "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	name := "java"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if err := os.WriteFile(filepath.Join(binDir, name), []byte{}, 0o755); err != nil {
		t.Fatal(err)
	}

	toolPath, _, err := ResolveToolPath(jdkRoot, "java")
	if err != nil {
		t.Fatalf("ResolveToolPath: %v", err)
	}
	if !strings.Contains(toolPath, filepath.Join("Contents", "Home", "bin")) {
		t.Errorf("toolPath = %q, want it to use the Contents/Home bundle layout", toolPath)
	}
}

func TestSuggestionForKnownKinds(t *testing.T) {
	if s := suggestionFor(kopierr.NoLocalVersion(nil)); s == "" {
		t.Error("expected a suggestion for NoLocalVersion")
	}
	if s := suggestionFor(kopierr.JdkNotInstalled("temurin@21", false)); !strings.Contains(s, "kopi install") {
		t.Errorf("suggestion = %q, want it to mention kopi install", s)
	}
}
