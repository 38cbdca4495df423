package locking

import (
	"context"
	"os"
	"testing"
	"time"

	"kopi/internal/config"
	"kopi/internal/platform"
)

// fixedInspector always reports the same FilesystemInfo, the Go analogue of
// controller.rs's test-only TestInspector.
type fixedInspector struct {
	info platform.FilesystemInfo
}

func (f fixedInspector) Classify(string) (platform.FilesystemInfo, error) {
	return f.info, nil
}

func nativeFS() platform.FilesystemInfo {
	return platform.FilesystemInfo{Kind: "ext4", Support: platform.Native}
}

func fallbackFS() platform.FilesystemInfo {
	return platform.FilesystemInfo{Kind: "nfs", Support: platform.RequiresFallback, IsNetworkShare: true}
}

func testScope() LockScope {
	return Installation(PackageCoordinate{Distribution: "temurin", MajorVersion: 21, Kind: PackageJdk})
}

func TestAcquireAdvisoryOnNativeFilesystem(t *testing.T) {
	home := t.TempDir()
	c := NewControllerWithInspector(home, config.DefaultLockingConfig(), fixedInspector{nativeFS()})
	scope := testScope()

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if acq.Backend() != BackendAdvisory {
		t.Errorf("Backend() = %v, want Advisory", acq.Backend())
	}
	if err := c.Release(acq); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestTryAcquireReturnsFalseWhenContended(t *testing.T) {
	home := t.TempDir()
	c := NewControllerWithInspector(home, config.DefaultLockingConfig(), fixedInspector{nativeFS()})
	scope := testScope()

	first, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer c.Release(first)

	_, ok, err := c.TryAcquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	if ok {
		t.Errorf("expected TryAcquire to fail while first holder has the lock")
	}
}

func TestBlockingAcquireTimesOut(t *testing.T) {
	home := t.TempDir()
	cfg := config.LockingConfig{Mode: config.LockingModeAuto, TimeoutSecs: 1}
	c := NewControllerWithInspector(home, cfg, fixedInspector{nativeFS()})
	scope := testScope()

	first, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer c.Release(first)

	start := time.Now()
	_, err = c.Acquire(context.Background(), scope)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("returned before timeout elapsed: %v", elapsed)
	}
}

func TestInspectorRequiresFallback(t *testing.T) {
	home := t.TempDir()
	c := NewControllerWithInspector(home, config.DefaultLockingConfig(), fixedInspector{fallbackFS()})
	scope := CacheWriter

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if acq.Backend() != BackendFallback {
		t.Errorf("Backend() = %v, want Fallback", acq.Backend())
	}
	if err := c.Release(acq); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestForcedFallbackModeBypassesInspector(t *testing.T) {
	home := t.TempDir()
	cfg := config.LockingConfig{Mode: config.LockingModeFallback, TimeoutSecs: 10}
	c := NewControllerWithInspector(home, cfg, fixedInspector{nativeFS()})
	scope := CacheWriter

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if acq.Backend() != BackendFallback {
		t.Errorf("Backend() = %v, want Fallback", acq.Backend())
	}
	c.Release(acq)
}

func TestForcedAdvisoryModeBypassesInspector(t *testing.T) {
	home := t.TempDir()
	cfg := config.LockingConfig{Mode: config.LockingModeAdvisory, TimeoutSecs: 10}
	c := NewControllerWithInspector(home, cfg, fixedInspector{fallbackFS()})
	scope := CacheWriter

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if acq.Backend() != BackendAdvisory {
		t.Errorf("Backend() = %v, want Advisory", acq.Backend())
	}
	c.Release(acq)
}

func TestFallbackLockArtifactsOnRelease(t *testing.T) {
	home := t.TempDir()
	c := NewControllerWithInspector(home, config.DefaultLockingConfig(), fixedInspector{fallbackFS()})
	scope := CacheWriter
	lockPath := scope.LockPath(home)

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("expected lock file to exist: %v", err)
	}
	if _, err := os.Stat(lockPath + ".marker"); err != nil {
		t.Errorf("expected marker file to exist: %v", err)
	}

	if err := c.Release(acq); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(lockPath); err == nil {
		t.Errorf("expected lock file to be removed after release")
	}
	if _, err := os.Stat(lockPath + ".marker"); err == nil {
		t.Errorf("expected marker file to be removed after release")
	}
}
