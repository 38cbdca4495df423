// Package kopierr defines kopi's error taxonomy as tagged Go types instead of
// opaque strings, so the CLI surface can map an error to a suggestion and an
// exit code without parsing messages.
package kopierr

import "fmt"

// Kind identifies which branch of the taxonomy an error belongs to. Kept as a
// string enum rather than int so error logs stay readable without a lookup
// table.
type Kind string

const (
	KindVersionNotAvailable Kind = "version_not_available"
	KindInvalidVersion      Kind = "invalid_version_format"
	KindInvalidConfig       Kind = "invalid_config"
	KindValidation          Kind = "validation_error"
	KindNoLocalVersion      Kind = "no_local_version"
	KindJdkNotInstalled     Kind = "jdk_not_installed"
	KindToolNotFound        Kind = "tool_not_found"
	KindAlreadyExists       Kind = "already_exists"
	KindPermissionDenied    Kind = "permission_denied"
	KindDiskSpace           Kind = "disk_space_error"
	KindNetwork             Kind = "network_error"
	KindMetadataFetch       Kind = "metadata_fetch"
	KindChecksumMismatch    Kind = "checksum_mismatch"
	KindSecurity            Kind = "security_error"
	KindLockingAcquire      Kind = "locking_acquire"
	KindLockingTimeout      Kind = "locking_timeout"
	KindLockingRelease      Kind = "locking_release"
	KindLockingCancelled    Kind = "locking_cancelled"
	KindKopiNotFound        Kind = "kopi_not_found"
	KindShellDetection      Kind = "shell_detection_error"
	KindIO                  Kind = "io"
	KindHTTP                Kind = "http"
)

// ExitCode maps a Kind to the canonical exit code table in spec §6.
func (k Kind) ExitCode() int {
	switch k {
	case KindInvalidVersion, KindInvalidConfig:
		return 2
	case KindNoLocalVersion:
		return 3
	case KindJdkNotInstalled:
		return 4
	case KindToolNotFound:
		return 5
	case KindPermissionDenied:
		return 13
	case KindAlreadyExists:
		return 17
	case KindNetwork, KindHTTP, KindMetadataFetch:
		return 20
	case KindDiskSpace:
		return 28
	case KindKopiNotFound:
		return 127
	default:
		return 1
	}
}

// Error is the single concrete error type every component returns. Fields
// beyond Kind and Message are populated selectively by the constructors below
// so callers can read SearchedPaths, Scope, etc. directly (after As) instead
// of parsing the message.
type Error struct {
	Kind    Kind
	Message string

	// Detail fields, populated depending on Kind. Left zero-valued when not
	// applicable to the constructing Kind.
	SearchedPaths      []string
	Scope              string
	WaitedSecs         float64
	Spec               string
	AutoInstallEnabled bool
	AutoInstallFailed  string
	UserDeclined       bool
	InstallInProgress  bool
	Tool               string
	JdkPath            string
	AvailableTools     []string
	AvailableVersions  []string
	IsAutoInstallCtx   bool

	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to an underlying error without discarding it, mirroring
// the teacher's habit of wrapping with fmt.Errorf("...: %w", err) throughout
// internal/cmd/*.go.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: err}
}

func VersionNotAvailable(spec string, available []string) *Error {
	e := newf(KindVersionNotAvailable, "version %q is not available", spec)
	e.Spec = spec
	e.AvailableVersions = available
	return e
}

func InvalidVersionFormat(input string) *Error {
	return newf(KindInvalidVersion, "invalid version format: %q", input)
}

func InvalidConfig(reason string) *Error {
	return newf(KindInvalidConfig, "invalid config: %s", reason)
}

func Validation(reason string) *Error {
	return newf(KindValidation, "%s", reason)
}

func NoLocalVersion(searched []string) *Error {
	e := newf(KindNoLocalVersion, "No Java version configured")
	e.SearchedPaths = searched
	return e
}

func JdkNotInstalled(spec string, autoInstallEnabled bool) *Error {
	e := newf(KindJdkNotInstalled, "JDK %q is not installed", spec)
	e.Spec = spec
	e.AutoInstallEnabled = autoInstallEnabled
	return e
}

func ToolNotFound(tool, jdkPath string, available []string) *Error {
	e := newf(KindToolNotFound, "tool %q not found in %s", tool, jdkPath)
	e.Tool = tool
	e.JdkPath = jdkPath
	e.AvailableTools = available
	return e
}

func AlreadyExists(what string) *Error {
	return newf(KindAlreadyExists, "%s already exists", what)
}

func PermissionDenied(reason string) *Error {
	return newf(KindPermissionDenied, "permission denied: %s", reason)
}

func DiskSpace(requiredMB, freeMB uint64) *Error {
	return newf(KindDiskSpace, "insufficient disk space: need %d MiB, have %d MiB", requiredMB, freeMB)
}

func Network(reason string) *Error {
	return newf(KindNetwork, "%s", reason)
}

func MetadataFetch(reason string) *Error {
	return newf(KindMetadataFetch, "%s", reason)
}

func ChecksumMismatch(expected, actual string) *Error {
	return newf(KindChecksumMismatch, "checksum mismatch: expected %s, got %s", expected, actual)
}

func Security(reason string) *Error {
	return newf(KindSecurity, "%s", reason)
}

func LockingAcquire(scope, details string) *Error {
	e := newf(KindLockingAcquire, "failed to acquire lock for %s: %s", scope, details)
	e.Scope = scope
	return e
}

func LockingTimeout(scope string, waited float64) *Error {
	e := newf(KindLockingTimeout, "timed out waiting for lock on %s after %.2fs", scope, waited)
	e.Scope = scope
	e.WaitedSecs = waited
	return e
}

func LockingRelease(scope, details string) *Error {
	e := newf(KindLockingRelease, "failed to release lock for %s: %s", scope, details)
	e.Scope = scope
	return e
}

func LockingCancelled(scope string, waited float64) *Error {
	e := newf(KindLockingCancelled, "lock acquisition for %s cancelled", scope)
	e.Scope = scope
	e.WaitedSecs = waited
	return e
}

func KopiNotFound(searched []string, autoInstallCtx bool) *Error {
	e := newf(KindKopiNotFound, "kopi binary not found")
	e.SearchedPaths = searched
	e.IsAutoInstallCtx = autoInstallCtx
	return e
}

func ShellDetection(reason string) *Error {
	return newf(KindShellDetection, "%s", reason)
}

func IO(reason string, err error) *Error {
	return Wrap(KindIO, reason, err)
}

func HTTP(reason string, err error) *Error {
	return Wrap(KindHTTP, reason, err)
}

// As is a small helper for callers that need the typed *Error back out of an
// error interface, since every constructor above already returns the
// concrete type and most callers never need it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
