package locking

import (
	"context"
	"testing"

	"kopi/internal/config"
)

func TestGuardReleaseAllowsReacquire(t *testing.T) {
	home := t.TempDir()
	c := NewControllerWithInspector(home, config.DefaultLockingConfig(), fixedInspector{nativeFS()})
	scope := CacheWriter

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	guard := NewScopedGuard(c, acq)
	if guard.Backend() != BackendAdvisory {
		t.Errorf("Backend() = %v, want Advisory", guard.Backend())
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	reacquired, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("expected reacquire to succeed after release, got: %v", err)
	}
	c.Release(reacquired)
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	home := t.TempDir()
	c := NewControllerWithInspector(home, config.DefaultLockingConfig(), fixedInspector{nativeFS()})
	scope := CacheWriter

	acq, err := c.Acquire(context.Background(), scope)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	guard := NewScopedGuard(c, acq)
	if err := guard.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("second Release should be a no-op, got: %v", err)
	}
}
