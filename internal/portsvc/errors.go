package portsvc

// Error wraps a low-level cause with a short message and a stable
// Kind, mirroring the classification table in §7 of the spec.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

// Kind enumerates the port-service error classes named in §7.
type Kind string

const (
	KindAlreadyOpen Kind = "already_open"
	KindNotOpen     Kind = "not_open"
	KindOpenFailed  Kind = "open_failed"
	KindWriteFailed Kind = "write_failed"
	KindReadFailed  Kind = "read_failed"
	KindInvalid     Kind = "invalid_arguments"
)

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, err: cause}
}

var (
	// ErrAlreadyOpen is returned by open() when the port is already Open.
	ErrAlreadyOpen = newErr(KindAlreadyOpen, "port already open", nil)
	// ErrNotOpen is returned by write()/read() when Closed.
	ErrNotOpen = newErr(KindNotOpen, "port not open", nil)
)

// OpenFailed wraps a driver-level error encountered while opening.
func OpenFailed(cause error) *Error { return newErr(KindOpenFailed, "open failed", cause) }

// WriteFailed wraps a transport error encountered while writing.
func WriteFailed(cause error) *Error { return newErr(KindWriteFailed, "write failed", cause) }

// ReadFailed wraps a transport error encountered while reading.
func ReadFailed(cause error) *Error { return newErr(KindReadFailed, "read failed", cause) }

// InvalidArg reports a bad argument to a service call (port_name
// required when Closed, etc).
func InvalidArg(msg string) *Error { return newErr(KindInvalid, msg, nil) }
