//go:build linux

package platform

import "os"

// CurrentLibc detects musl vs glibc on Linux by probing for musl's dynamic
// loader, which is the only portable runtime signal available without CGO
// (there is no Go equivalent of Rust's compile-time target_env). Any other
// Linux is assumed glibc, which is true for the overwhelming majority of JDK
// metadata's supported platforms.
func CurrentLibc() Libc {
	muslLoaders := []string{
		"/lib/ld-musl-x86_64.so.1",
		"/lib/ld-musl-aarch64.so.1",
		"/lib/ld-musl-armhf.so.1",
	}
	for _, p := range muslLoaders {
		if _, err := os.Stat(p); err == nil {
			return LibcMusl
		}
	}
	return LibcGlibc
}
