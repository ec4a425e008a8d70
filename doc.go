// Package refcount provides shared ownership of values with deterministic
// teardown.
//
// Go reclaims memory on its own, but files, sockets, runtimes and other
// resources still need to be released exactly once, when the last user is
// done with them. This module counts owners explicitly so that release
// happens at a known point, from whichever goroutine lets go last.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	refcount/
//	├── shared/          Shared and weak handles, self references, casts
//	│   └── internal/ctrl/  Control block: atomic strong and weak counts
//	├── resource/        Handle table storing shared handles by integer id
//	├── wasmref/         wazero runtimes, modules and memories under shared ownership
//	├── errors/          Structured error types for contract violations
//	├── internal/playground/  Command interpreter over named handles
//	└── cmd/refscope/    CLI and TUI for the playground
//
// # Quick Start
//
// Share an object and release it deterministically:
//
//	p := shared.New(f) // f is an *os.File
//	q := p.Clone()     // two owners
//
//	p.Reset()
//	q.Reset()          // last owner: f.Close() runs here
//
// Observe without owning:
//
//	w := q.Weak()
//	if r := w.Lock(); !r.Empty() {
//	    defer r.Reset()
//	    use(r.Get())
//	}
//
// # Ownership Rules
//
// Go has no destructors, so every owning handle must be released with
// Reset, Move or Assign. A plain copy of a handle with = is a borrowed
// view: it adds no owner and must not be Reset.
//
// # Thread Safety
//
// Counts are atomic. Distinct handles may be cloned, moved and reset from
// different goroutines concurrently, even when they share an object.
// A single handle variable is not safe for concurrent mutation.
//
// # Memory Model
//
// make-style allocation (shared.Make) keeps the object and its counts in
// one allocation. shared.New wraps an object allocated elsewhere. Either
// way the object is torn down when the last owner lets go and the count
// storage is released when the last observer does.
package refcount
