package locking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"kopi/internal/config"
	"kopi/internal/kopierr"
	"kopi/internal/platform"
)

// errWouldBlock is the sentinel tryLockFile returns when another process
// (or another exclusive/shared combination) already holds the file lock.
var errWouldBlock = errors.New("lock would block")

// errUnsupported is the sentinel tryLockFile returns when the underlying
// filesystem/OS combination rejects advisory locking outright (e.g.
// ENOTSUP/ENOLCK from flock on some network filesystems), per spec §4.4
// step 3's "downgrade to the fallback protocol" outcome — distinct from an
// ordinary I/O error, which surfaces as LockingAcquire instead.
var errUnsupported = errors.New("advisory locking unsupported")

// AcquireMode selects blocking vs try-once semantics, grounded on
// controller.rs's AcquireMode.
type AcquireMode int

const (
	Blocking AcquireMode = iota
	NonBlocking
)

const retryDelay = 50 * time.Millisecond

// Controller coordinates advisory locking and fallback behavior across
// filesystems, grounded on original_source/src/locking/controller.rs's
// LockController. Constructed once per CLI invocation and threaded through
// to whichever component (install, cache refresh, config write) needs a
// scope held.
type Controller struct {
	kopiHome     string
	inspector    platform.Inspector
	preferredMode config.LockingMode
	timeout      time.Duration
}

// NewController builds a Controller backed by the real OS filesystem
// inspector. Use NewControllerWithInspector in tests to inject a fake one,
// the same seam controller_test.go's TestInspector exercises in the Rust
// original.
func NewController(kopiHome string, cfg config.LockingConfig) *Controller {
	return NewControllerWithInspector(kopiHome, cfg, platform.NewDefaultInspector())
}

func NewControllerWithInspector(kopiHome string, cfg config.LockingConfig, inspector platform.Inspector) *Controller {
	return &Controller{
		kopiHome:      kopiHome,
		inspector:     inspector,
		preferredMode: cfg.Mode,
		timeout:       cfg.Timeout(),
	}
}

// Acquire blocks (subject to ctx cancellation and the configured timeout)
// until scope is held, returning the acquisition. Callers must call
// Release (directly, or via NewScopedGuard) exactly once.
func (c *Controller) Acquire(ctx context.Context, scope LockScope) (LockAcquisition, error) {
	acq, ok, err := c.acquireWithMode(ctx, scope, Blocking)
	if err != nil {
		return LockAcquisition{}, err
	}
	if !ok {
		return LockAcquisition{}, kopierr.LockingAcquire(scope.String(), "lock acquisition unexpectedly returned without handle")
	}
	return acq, nil
}

// TryAcquire attempts to acquire scope without blocking. The bool return is
// false (with a nil error) when the scope is currently held elsewhere.
func (c *Controller) TryAcquire(ctx context.Context, scope LockScope) (LockAcquisition, bool, error) {
	return c.acquireWithMode(ctx, scope, NonBlocking)
}

// Release releases a previously acquired scope. Prefer NewScopedGuard at
// call sites so release happens via defer even on early returns.
func (c *Controller) Release(acq LockAcquisition) error {
	return acq.Release()
}

func (c *Controller) acquireWithMode(ctx context.Context, scope LockScope, mode AcquireMode) (LockAcquisition, bool, error) {
	lockPath := scope.LockPath(c.kopiHome)
	parent := filepath.Dir(lockPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return LockAcquisition{}, false, kopierr.LockingAcquire(scope.String(),
			fmt.Sprintf("failed to ensure parent directory %s exists: %v", parent, err))
	}

	backend, err := c.determineSupport(lockPath, scope)
	if err != nil {
		return LockAcquisition{}, false, err
	}

	if backend == BackendFallback {
		return c.acquireFallback(ctx, scope, lockPath, mode)
	}
	return c.acquireAdvisory(ctx, scope, lockPath, mode)
}

func (c *Controller) determineSupport(lockPath string, scope LockScope) (LockBackend, error) {
	switch c.preferredMode {
	case config.LockingModeFallback:
		log.Infof("locking mode forced to fallback for %s (%s)", scope, lockPath)
		return BackendFallback, nil
	case config.LockingModeAdvisory:
		log.Debugf("locking mode forced to advisory for %s (%s)", scope, lockPath)
		return BackendAdvisory, nil
	}

	info, err := c.inspector.Classify(lockPath)
	if err != nil {
		return BackendAdvisory, kopierr.LockingAcquire(scope.String(), fmt.Sprintf("failed to classify filesystem for %s: %v", lockPath, err))
	}
	log.Debugf("filesystem classification for %s: %+v", lockPath, info)

	switch info.Support {
	case platform.RequiresFallback:
		log.Infof("downgrading %s lock to fallback because filesystem %s requires it", scope, info.Kind)
		return BackendFallback, nil
	default:
		return BackendAdvisory, nil
	}
}

func (c *Controller) acquireAdvisory(ctx context.Context, scope LockScope, lockPath string, mode AcquireMode) (LockAcquisition, bool, error) {
	file, err := c.prepareLockFile(lockPath)
	if err != nil {
		return LockAcquisition{}, false, kopierr.LockingAcquire(scope.String(), fmt.Sprintf("failed to open lock file %s: %v", lockPath, err))
	}

	shared := scope.Kind() == Shared
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			file.Close()
			return LockAcquisition{}, false, kopierr.LockingCancelled(scope.String(), time.Since(start).Seconds())
		default:
		}

		err := tryLockFile(file, shared)
		switch {
		case err == nil:
			log.Debugf("acquired advisory lock for %s after %.3fs", scope, time.Since(start).Seconds())
			handle := newLockHandle(scope, lockPath, file)
			handle.acquiredAt = start
			return LockAcquisition{advisory: handle}, true, nil

		case errors.Is(err, errWouldBlock):
			if mode == NonBlocking {
				file.Close()
				return LockAcquisition{}, false, nil
			}
			if time.Since(start) >= c.timeout {
				file.Close()
				return LockAcquisition{}, false, kopierr.LockingTimeout(scope.String(), time.Since(start).Seconds())
			}
			time.Sleep(retryDelay)
			continue

		case errors.Is(err, errUnsupported):
			file.Close()
			log.Infof("advisory locking unsupported for %s (%s); downgrading to fallback", scope, lockPath)
			return c.acquireFallback(ctx, scope, lockPath, mode)

		default:
			file.Close()
			return LockAcquisition{}, false, kopierr.LockingAcquire(scope.String(), err.Error())
		}
	}
}

func (c *Controller) prepareLockFile(lockPath string) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (c *Controller) acquireFallback(ctx context.Context, scope LockScope, lockPath string, mode AcquireMode) (LockAcquisition, bool, error) {
	markerPath := lockPath + ".marker"
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return LockAcquisition{}, false, kopierr.LockingCancelled(scope.String(), time.Since(start).Seconds())
		default:
		}

		leaseID := generateLeaseID()
		acquired, err := tryCreateFallback(lockPath, markerPath, scope, leaseID)
		switch {
		case err == nil && acquired:
			log.Debugf("acquired fallback lock for %s after %.3fs (lease %s)", scope, time.Since(start).Seconds(), leaseID)
			handle := newFallbackHandle(scope, lockPath, markerPath, leaseID)
			handle.acquiredAt = start
			return LockAcquisition{fallback: handle}, true, nil

		case err == nil && !acquired:
			if mode == NonBlocking {
				return LockAcquisition{}, false, nil
			}
			if time.Since(start) >= c.timeout {
				return LockAcquisition{}, false, kopierr.LockingTimeout(scope.String(), time.Since(start).Seconds())
			}
			time.Sleep(retryDelay)
			continue

		default:
			return LockAcquisition{}, false, kopierr.LockingAcquire(scope.String(), err.Error())
		}
	}
}

func generateLeaseID() string {
	return fmt.Sprintf("%d-%s", os.Getpid(), uuid.New().String())
}
