package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in a handle's lifecycle the error occurred
type Phase string

const (
	PhaseConstruct Phase = "construct" // handle and control block creation
	PhaseAccess    Phase = "access"    // dereference, self reference
	PhaseCount     Phase = "count"     // strong/weak count transitions
	PhaseCast      Phase = "cast"      // retyping a handle
	PhaseTable     Phase = "table"     // handle table operations
	PhaseLoad      Phase = "load"      // module loading
	PhaseRuntime   Phase = "runtime"   // runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindEmptyHandle   Kind = "empty_handle"
	KindNotOwned      Kind = "not_owned"
	KindExpired       Kind = "expired"
	KindResurrection  Kind = "resurrection"
	KindUnderflow     Kind = "underflow"
	KindNilPointer    Kind = "nil_pointer"
	KindTypeMismatch  Kind = "type_mismatch"
	KindNotFound      Kind = "not_found"
	KindClosed        Kind = "closed"
	KindInvalidInput  Kind = "invalid_input"
	KindInstantiation Kind = "instantiation"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Label  string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Label != "" {
		b.WriteString(" at ")
		b.WriteString(e.Label)
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Label sets the handle or table label the error refers to
func (b *Builder) Label(l string) *Builder {
	b.err.Label = l
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

// EmptyHandle creates an error for dereferencing a handle that owns nothing
func EmptyHandle(goType string) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindEmptyHandle,
		GoType: goType,
		Detail: "dereference of empty handle",
	}
}

// NotOwned creates an error for a self reference requested before any
// shared handle took ownership of the object
func NotOwned(goType string) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindNotOwned,
		GoType: goType,
		Detail: "object is not owned by a shared handle",
	}
}

// Expired creates an error for upgrading a weak handle whose payload is gone
func Expired(goType string) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindExpired,
		GoType: goType,
		Detail: "weak handle expired",
	}
}

// Resurrection creates an error for a strong increment on a dead block
func Resurrection(blockID uint64) *Error {
	return &Error{
		Phase:  PhaseCount,
		Kind:   KindResurrection,
		Detail: fmt.Sprintf("strong increment on block %d with no strong owners", blockID),
		Value:  blockID,
	}
}

// Underflow creates an error for a count decremented below zero
func Underflow(blockID uint64, counter string) *Error {
	return &Error{
		Phase:  PhaseCount,
		Kind:   KindUnderflow,
		Detail: fmt.Sprintf("%s count of block %d dropped below zero", counter, blockID),
		Value:  blockID,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, goType, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		GoType: goType,
		Detail: fmt.Sprintf("expected %s", want),
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

// Closed creates an error for operations on a closed container
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
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

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
