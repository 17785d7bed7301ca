package bydhvs

import (
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies a failed poll cycle. The core never retries;
// callers use the kind to distinguish transient failures (ConnectError,
// ReadError, Timeout) from structural ones (FrameError, ProtocolError).
type FailureKind int

const (
	ConnectError FailureKind = iota
	WriteError
	ReadError
	Timeout
	FrameError
	ProtocolError
)

func (k FailureKind) String() string {
	switch k {
	case ConnectError:
		return "connect"
	case WriteError:
		return "write"
	case ReadError:
		return "read"
	case Timeout:
		return "timeout"
	case FrameError:
		return "frame"
	case ProtocolError:
		return "protocol"
	default:
		return "unknown"
	}
}

// Transient reports whether a retry at the caller's discretion is likely
// to succeed without operator intervention.
func (k FailureKind) Transient() bool {
	switch k {
	case ConnectError, ReadError, WriteError, Timeout:
		return true
	default:
		return false
	}
}

// CycleError is the classified failure of one poll cycle. Step names the
// session step that failed ("handshake", "identity", "status", "tower 2").
type CycleError struct {
	Kind FailureKind
	Step string
	Err  error
}

func (e *CycleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bydhvs: %s failed at %s: %v", e.Kind, e.Step, e.Err)
	}
	return fmt.Sprintf("bydhvs: %s failed at %s", e.Kind, e.Step)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// cycleError wraps err, promoting net timeouts to the Timeout kind so the
// caller's retry policy sees them uniformly regardless of which syscall
// timed out.
func cycleError(kind FailureKind, step string, err error) *CycleError {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		kind = Timeout
	}
	return &CycleError{Kind: kind, Step: step, Err: err}
}

func frameErrorf(step, format string, args ...any) *CycleError {
	return &CycleError{Kind: FrameError, Step: step, Err: fmt.Errorf(format, args...)}
}

func protocolErrorf(step, format string, args ...any) *CycleError {
	return &CycleError{Kind: ProtocolError, Step: step, Err: fmt.Errorf(format, args...)}
}
