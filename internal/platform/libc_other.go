//go:build !linux

package platform

// CurrentLibc reports the generic "libc" marker on non-Linux platforms,
// which is how foojay tags macOS and Windows packages (neither glibc nor
// musl is a meaningful distinction there).
func CurrentLibc() Libc {
	return LibcLibc
}
