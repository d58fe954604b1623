package errcode

// Code is a stable, log- and status-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Runtime faults: counted, never fatal.
	BusFault      Code = "bus_fault"
	Overflow      Code = "overflow"
	TransportDown Code = "transport_down"

	// Init-time faults.
	IdentityMismatch Code = "identity_mismatch" // warning only
	InitFailed       Code = "init_failed"       // fatal

	// Configuration rejected before start.
	InvalidConfig Code = "invalid_config"
	BusConflict   Code = "bus_conflict"

	Timeout Code = "timeout"
	Error   Code = "error" // generic fallback
)

// E keeps an operation, context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds an *E.
func New(c Code, op, msg string, cause error) *E {
	return &E{C: c, Op: op, Msg: msg, Err: cause}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for err != nil {
		if c, ok := err.(Code); ok {
			return c
		}
		if x, ok := err.(coder); ok {
			return x.Code()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Error
}

// Fatal reports whether err must stop the system.
func Fatal(err error) bool { return Of(err) == InitFailed }
