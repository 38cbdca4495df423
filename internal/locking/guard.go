package locking

// ScopedGuard is the RAII-style release guard named in spec §4.2's
// LockAcquisition description ("Release is guaranteed on drop"), adapted to
// Go by requiring the caller to `defer guard.Release()` rather than relying
// on an automatic destructor, grounded on
// original_source/src/locking/scoped_guard.rs's ScopedPackageLockGuard.
type ScopedGuard struct {
	controller *Controller
	acq        *LockAcquisition
	backend    LockBackend
	label      string
}

// NewScopedGuard wraps an already-acquired LockAcquisition. Typical use:
//
//	acq, err := controller.Acquire(ctx, scope)
//	if err != nil { return err }
//	guard := locking.NewScopedGuard(controller, acq)
//	defer guard.Release()
func NewScopedGuard(controller *Controller, acq LockAcquisition) *ScopedGuard {
	return &ScopedGuard{
		controller: controller,
		acq:        &acq,
		backend:    acq.Backend(),
		label:      acq.Scope().Label(),
	}
}

func (g *ScopedGuard) Backend() LockBackend { return g.backend }
func (g *ScopedGuard) ScopeLabel() string    { return g.label }

// Release releases the wrapped acquisition. Safe to call more than once;
// the underlying handle types already guard against double release.
func (g *ScopedGuard) Release() error {
	if g.acq == nil {
		return nil
	}
	err := g.controller.Release(*g.acq)
	g.acq = nil
	if err != nil {
		log.Warnf("failed to release package lock for %s: %v", g.label, err)
	}
	return err
}
