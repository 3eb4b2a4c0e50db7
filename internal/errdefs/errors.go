// Package errdefs classifies the failures guestctl can surface so that
// callers (including scripts branching on the exit code) can tell one
// failure class from another.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind identifies the high level class of an error surfaced by guestctl.
type Kind string

const (
	// KindUsage indicates invalid or missing command line input.
	KindUsage Kind = "usage"
	// KindConnectivity indicates a network or TLS failure reaching the endpoint.
	KindConnectivity Kind = "connectivity"
	// KindAuth indicates the endpoint rejected the supplied credentials.
	KindAuth Kind = "authentication"
	// KindNotFound indicates the VM (or its organization scope) was not found.
	KindNotFound Kind = "not-found"
	// KindAmbiguous indicates a lookup matched more than one candidate.
	KindAmbiguous Kind = "ambiguous"
	// KindDecode indicates a payload failed base64 or gzip decoding.
	KindDecode Kind = "decode"
	// KindSourceUnavailable indicates a payload file could not be read.
	KindSourceUnavailable Kind = "source-unavailable"
	// KindReconfigureRejected indicates the platform refused the reconfigure request.
	KindReconfigureRejected Kind = "reconfigure-rejected"
	// KindTaskFailed indicates the reconfigure task reached the error state.
	KindTaskFailed Kind = "task-failed"
	// KindTaskTimeout indicates the task did not reach a terminal state in time.
	KindTaskTimeout Kind = "task-timeout"
)

// Error wraps an underlying error with a Kind.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// Unwrap lets errors.Is/As reach the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// E wraps err with the given kind. A nil err yields an error whose
// message is the kind itself.
func E(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf is E with fmt.Errorf formatting. The %w verb works as usual.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Exit codes, one per failure class. Callers invoking guestctl from
// provisioning pipelines branch on these, so the mapping is stable.
const (
	exitUsage               = 2
	exitConnectivity        = 10
	exitAuth                = 11
	exitNotFound            = 12
	exitAmbiguous           = 13
	exitDecode              = 14
	exitSourceUnavailable   = 15
	exitReconfigureRejected = 16
	exitTaskFailed          = 17
	exitTaskTimeout         = 18
)

// ExitCode maps an error to the process exit code for its Kind.
// Unclassified errors map to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindUsage:
		return exitUsage
	case KindConnectivity:
		return exitConnectivity
	case KindAuth:
		return exitAuth
	case KindNotFound:
		return exitNotFound
	case KindAmbiguous:
		return exitAmbiguous
	case KindDecode:
		return exitDecode
	case KindSourceUnavailable:
		return exitSourceUnavailable
	case KindReconfigureRejected:
		return exitReconfigureRejected
	case KindTaskFailed:
		return exitTaskFailed
	case KindTaskTimeout:
		return exitTaskTimeout
	default:
		return 1
	}
}
