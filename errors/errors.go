package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConnect   Phase = "connect"   // transport setup and handshake
	PhaseCall      Phase = "call"      // request/response round trip
	PhaseDispatch  Phase = "dispatch"  // event routing to callbacks
	PhaseEncode    Phase = "encode"    // Go to wire
	PhaseDecode    Phase = "decode"    // wire to Go
	PhaseFactory   Phase = "factory"   // object creation and lookup
	PhaseLifecycle Phase = "lifecycle" // release/remove bookkeeping
	PhaseHost      Phase = "host"      // host-side function execution
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindConnection      Kind = "connection"
	KindProtocol        Kind = "protocol"
	KindDisconnected    Kind = "disconnected"
	KindInvalidType     Kind = "invalid_type"
	KindInvalidHandle   Kind = "invalid_handle"
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindTimeout         Kind = "timeout"
	KindRemote          Kind = "remote"
	KindInvalidData     Kind = "invalid_data"
)

// Sentinels match any error of the same Kind, whatever its phase.
var (
	ErrConnection      = &Error{Kind: KindConnection}
	ErrProtocol        = &Error{Kind: KindProtocol}
	ErrDisconnected    = &Error{Kind: KindDisconnected}
	ErrInvalidType     = &Error{Kind: KindInvalidType}
	ErrInvalidHandle   = &Error{Kind: KindInvalidHandle}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrTimeout         = &Error{Kind: KindTimeout}
	ErrRemote          = &Error{Kind: KindRemote}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Method string
	Detail string
	Path   []string
	Handle uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Class != "" || e.Method != "" {
		b.WriteString(" in ")
		b.WriteString(e.Class)
		if e.Method != "" {
			b.WriteByte('.')
			b.WriteString(e.Method)
		}
	}

	if e.Handle != 0 {
		b.WriteString(" (handle ")
		b.WriteString(strconv.FormatUint(e.Handle, 10))
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Call sets the remote class and method
func (b *Builder) Call(class, method string) *Builder {
	b.err.Class = class
	b.err.Method = method
	return b
}

// Handle sets the remote handle id
func (b *Builder) Handle(id uint64) *Builder {
	b.err.Handle = id
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Connection creates a connection error
func Connection(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConnect,
		Kind:   KindConnection,
		Detail: detail,
		Cause:  cause,
	}
}

// ProtocolMismatch creates a protocol error for incompatible peers
func ProtocolMismatch(local, remote int) *Error {
	return &Error{
		Phase:  PhaseConnect,
		Kind:   KindProtocol,
		Detail: fmt.Sprintf("protocol version %d does not match peer version %d", local, remote),
		Value:  remote,
	}
}

// Protocol creates a framing or sequencing error
func Protocol(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindProtocol,
		Detail: detail,
		Cause:  cause,
	}
}

// Disconnected creates an error for a peer that went away mid-session
func Disconnected(cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindDisconnected,
		Detail: "remote peer disconnected",
		Cause:  cause,
	}
}

// InvalidType creates an error for an unknown factory type id
func InvalidType(phase Phase, class, typeID string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidType,
		Class:  class,
		Detail: fmt.Sprintf("unknown type %q", typeID),
		Value:  typeID,
	}
}

// InvalidHandle creates an error for an operation on a destroyed object
func InvalidHandle(phase Phase, handle uint64, class string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Class:  class,
		Handle: handle,
		Detail: "object reference is not valid",
	}
}

// InvalidArgument creates an error for malformed parameters
func InvalidArgument(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Timeout creates an error for a caller that stopped waiting
func Timeout(class, method string, cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTimeout,
		Class:  class,
		Method: method,
		Detail: "no reply before deadline",
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
