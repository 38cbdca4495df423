package shiminstall

import (
	"os"
	"path/filepath"
	"testing"

	"kopi/internal/kopierr"
	"kopi/internal/paths"
)

// withFakeKopiShim writes a stand-in kopi-shim binary at the layout's
// expected bin/kopi-shim location, so createShimEntry's lookup succeeds
// without touching os.Executable or PATH.
func withFakeKopiShim(t *testing.T, home string) {
	t.Helper()
	layout := paths.New(home)
	if err := os.MkdirAll(filepath.Dir(layout.KopiShimBinary()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(layout.KopiShimBinary(), []byte("fake-shim-binary"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestCreateShimThenListShims(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.CreateShim("java", false); err != nil {
		t.Fatalf("CreateShim: %v", err)
	}

	shims, err := inst.ListShims()
	if err != nil {
		t.Fatalf("ListShims: %v", err)
	}
	if len(shims) != 1 || shims[0] != "java" {
		t.Errorf("ListShims = %v, want [java]", shims)
	}
}

func TestCreateShimFailsWhenAlreadyExistsWithoutForce(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.CreateShim("java", false); err != nil {
		t.Fatalf("CreateShim: %v", err)
	}
	err := inst.CreateShim("java", false)
	if err == nil {
		t.Fatal("expected AlreadyExists on second CreateShim")
	}
	kerr, ok := kopierr.As(err)
	if !ok || kerr.Kind != kopierr.KindAlreadyExists {
		t.Fatalf("expected KindAlreadyExists, got %v", err)
	}
}

func TestCreateShimWithForceReplacesExisting(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.CreateShim("java", false); err != nil {
		t.Fatalf("CreateShim: %v", err)
	}
	if err := inst.CreateShim("java", true); err != nil {
		t.Fatalf("CreateShim with force: %v", err)
	}
}

func TestRemoveShimOnMissingReturnsValidationError(t *testing.T) {
	home := t.TempDir()
	inst := New(home)

	err := inst.RemoveShim("java")
	if err == nil {
		t.Fatal("expected an error removing a missing shim")
	}
	kerr, ok := kopierr.As(err)
	if !ok || kerr.Kind != kopierr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestCreateThenRemoveShimRestoresEmptyDir(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.CreateShim("java", false); err != nil {
		t.Fatalf("CreateShim: %v", err)
	}
	before, err := inst.ListShims()
	if err != nil || len(before) != 1 {
		t.Fatalf("expected exactly one shim before removal, got %v, %v", before, err)
	}

	if err := inst.RemoveShim("java"); err != nil {
		t.Fatalf("RemoveShim: %v", err)
	}

	after, err := inst.ListShims()
	if err != nil {
		t.Fatalf("ListShims: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("ListShims after remove = %v, want empty", after)
	}
}

func TestListShimsOnMissingDirReturnsEmpty(t *testing.T) {
	inst := New(t.TempDir())
	shims, err := inst.ListShims()
	if err != nil {
		t.Fatalf("ListShims: %v", err)
	}
	if len(shims) != 0 {
		t.Errorf("ListShims = %v, want empty", shims)
	}
}

func TestVerifyShimsFlagsNonSymlinkEntry(t *testing.T) {
	home := t.TempDir()
	inst := New(home)
	if err := inst.InitShimsDirectory(); err != nil {
		t.Fatalf("InitShimsDirectory: %v", err)
	}

	plainFile := filepath.Join(home, "shims", "java")
	if err := os.WriteFile(plainFile, []byte("not a symlink"), 0o755); err != nil {
		t.Fatal(err)
	}

	problems, err := inst.VerifyShims()
	if err != nil {
		t.Fatalf("VerifyShims: %v", err)
	}
	if len(problems) != 1 || problems[0].Name != "java" {
		t.Fatalf("VerifyShims = %v, want one problem for java", problems)
	}
}

func TestVerifyShimsPassesForHealthySymlink(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.CreateShim("java", false); err != nil {
		t.Fatalf("CreateShim: %v", err)
	}

	problems, err := inst.VerifyShims()
	if err != nil {
		t.Fatalf("VerifyShims: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("VerifyShims = %v, want no problems for a healthy shim", problems)
	}
}

func TestRepairShimRecreatesBrokenEntry(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.InitShimsDirectory(); err != nil {
		t.Fatal(err)
	}
	brokenPath := filepath.Join(home, "shims", "java")
	if err := os.WriteFile(brokenPath, []byte("broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := inst.RepairShim("java"); err != nil {
		t.Fatalf("RepairShim: %v", err)
	}

	problems, err := inst.VerifyShims()
	if err != nil {
		t.Fatalf("VerifyShims: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("VerifyShims after repair = %v, want no problems", problems)
	}
}

func TestCreateMissingShimsSkipsExisting(t *testing.T) {
	home := t.TempDir()
	withFakeKopiShim(t, home)
	inst := New(home)

	if err := inst.CreateShim("java", false); err != nil {
		t.Fatalf("CreateShim: %v", err)
	}

	created, err := inst.CreateMissingShims([]string{"java", "javac"})
	if err != nil {
		t.Fatalf("CreateMissingShims: %v", err)
	}
	if len(created) != 1 || created[0] != "javac" {
		t.Errorf("CreateMissingShims = %v, want only [javac]", created)
	}
}
