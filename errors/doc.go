// Package errors provides structured error types for the refcount module.
//
// Errors are categorized by Phase (where in a handle's lifecycle the error
// occurred) and Kind (error category). The Error type carries the Go type
// name, an optional label, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTable, errors.KindNotFound).
//		Label("sockets").
//		Detail("handle %d", h).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotOwned("*Session")
//	err := errors.Underflow(blockID, "strong")
//
// Contract violations (dereferencing an empty handle, resurrecting a
// destroyed payload) are raised as panics carrying an *Error; everything
// else is returned. All errors implement the standard error interface and
// support errors.Is/As.
package errors
