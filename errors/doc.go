// Package errors provides structured error types for the obs-ipc library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the remote call it belongs to (class, method, handle),
// a human-readable detail and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindInvalidHandle).
//		Call("Scene", "MoveItem").
//		Handle(42).
//		Detail("scene was removed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseCall, 42, "Input")
//	err := errors.Disconnected(cause)
//
// Every Kind has a sentinel that matches regardless of phase, so callers
// test the taxonomy without caring where the failure surfaced:
//
//	if errors.Is(err, oerrors.ErrInvalidHandle) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
