// Package platform probes the current architecture, operating system, libc
// flavor and filesystem characteristics, generalizing the teacher's
// getRuntimeInfo (internal/cmd/download.go), which only ever needed to
// recognize "windows x64" for its own Windows-only download matching.
package platform

import "runtime"

// Architecture is the vendor-facing CPU architecture name used by JDK
// metadata sources, per spec §4.3.
type Architecture string

const (
	ArchX64     Architecture = "x64"
	ArchX86     Architecture = "x86"
	ArchAarch64 Architecture = "aarch64"
	ArchArm32   Architecture = "arm32"
	ArchPpc64   Architecture = "ppc64"
	ArchPpc64le Architecture = "ppc64le"
	ArchS390x   Architecture = "s390x"
	ArchSparcv9 Architecture = "sparcv9"
	ArchUnknown Architecture = "unknown"
)

// CurrentArchitecture maps runtime.GOARCH to the vendor architecture name,
// extending the teacher's three-case switch (amd64/386/arm64) to the full
// table in spec §4.3.
func CurrentArchitecture() Architecture {
	switch runtime.GOARCH {
	case "amd64":
		return ArchX64
	case "386":
		return ArchX86
	case "arm64":
		return ArchAarch64
	case "arm":
		return ArchArm32
	case "ppc64":
		return ArchPpc64
	case "ppc64le":
		return ArchPpc64le
	case "s390x":
		return ArchS390x
	case "sparc64":
		return ArchSparcv9
	default:
		return ArchUnknown
	}
}

// OS is the vendor-facing operating system name.
type OS string

const (
	OSLinux   OS = "linux"
	OSMacOS   OS = "macos"
	OSWindows OS = "windows"
	OSAlpine  OS = "alpine"
)

// CurrentOS returns the vendor OS name. Alpine is distinguished from generic
// linux by the libc probe (CurrentLibc), since GOOS alone can't tell them
// apart — both report "linux".
func CurrentOS() OS {
	switch runtime.GOOS {
	case "darwin":
		return OSMacOS
	case "windows":
		return OSWindows
	case "linux":
		if CurrentLibc() == LibcMusl {
			return OSAlpine
		}
		return OSLinux
	default:
		return OS(runtime.GOOS)
	}
}

// Libc is the foojay-flavored libc classification from spec §4.3.
type Libc string

const (
	LibcGlibc  Libc = "glibc"
	LibcMusl   Libc = "musl"
	LibcLibc   Libc = "libc"
	LibcCStdLib Libc = "c_std_lib"
	LibcNone   Libc = ""
)

// MatchesFoojayLibcType implements the asymmetric matching table from spec
// §4.3: our glibc matches a remote "libc" or "glibc"; musl only matches
// musl; the generic "libc"/"c_std_lib" markers (macOS/Windows) match
// themselves and each other since foojay uses them interchangeably for
// non-Linux platforms.
func MatchesFoojayLibcType(ours, remote Libc) bool {
	if ours == remote {
		return true
	}
	switch ours {
	case LibcGlibc:
		return remote == LibcLibc
	case LibcLibc, LibcCStdLib:
		return remote == LibcLibc || remote == LibcCStdLib
	default:
		return false
	}
}

// ExecutableExtension returns "exe" on Windows, else "".
func ExecutableExtension() string {
	if runtime.GOOS == "windows" {
		return "exe"
	}
	return ""
}

// WithExecutableExtension appends the platform's executable extension to
// name if one applies.
func WithExecutableExtension(name string) string {
	ext := ExecutableExtension()
	if ext == "" {
		return name
	}
	return name + "." + ext
}
