// Package shared provides reference-counted shared ownership of values
// whose teardown must happen at a precise moment: files, sockets, wasm
// instances, pooled buffers and other resources the garbage collector
// cannot release on its own.
//
// # Handles
//
// Three handle kinds cooperate through a per-allocation control block:
//
//	Ptr[T]     - owning reference; the last one released tears the payload down
//	Weak[T]    - observing reference; never keeps the payload alive
//	SelfRef[T] - embedded in an object so it can hand out owning references to itself
//
// Unique[T] is the single-owner counterpart. It has no control block and
// can be turned into a Ptr with Share once a second owner is needed.
//
// The control block counts owners (strong) and observers (weak). The
// payload is torn down exactly once, when the strong count reaches zero.
// The block's metadata is released exactly once, after the payload, when
// both counts are zero. Counts are updated with atomic read-modify-write
// operations, so handles to one object may be cloned and released from
// any number of goroutines. Access to the payload itself is not
// synchronized.
//
// # Creating Handles
//
// Wrap a value allocated elsewhere:
//
//	f, _ := os.Open(path)
//	file := shared.New(f) // closes f when the last owner is released
//
//	conn := shared.NewWithDeleter(c, func(c net.Conn) { c.Close() })
//
// Or allocate the value and its control block together:
//
//	cfg := shared.Make(Config{Workers: 4})        // Ptr[*Config]
//	mu := shared.MakeFunc(func(s *State) { ... }) // constructed in place
//
// # Ownership Rules
//
// Go has no destructors or copy constructors, so ownership moves are
// explicit:
//
//	q := p.Clone()   // copy: one more owner
//	q := p.Move()    // move: p is left empty, count unchanged
//	p.Assign(q)      // copy assignment
//	p.Adopt(New(v))  // move assignment from a fresh handle
//	p.Reset()        // release
//
// A plain `q := p` copies the handle without counting it. Such a copy is a
// borrowed view of p's reference; only one of them may be Reset.
//
// # Weak Handles
//
//	w := p.Weak()
//	if q := w.Lock(); !q.Empty() {
//	    defer q.Reset()
//	    use(q.Get())
//	}
//
// Lock is the only way to turn an observer back into an owner. It fails
// (returns an empty handle) once the payload is gone, including when the
// last owner is being released concurrently.
//
// An expired Weak no longer refers to the payload, so the garbage
// collector can reclaim it even while observers remain.
//
// # Aliasing and Casts
//
// Alias produces a handle to a part or a view of an owned object that keeps
// the whole object alive:
//
//	body := shared.Alias(req, req.Get().Body)
//
// AliasWeak does the same for a weak handle.
//
// StaticCast applies a conversion the caller vouches for; DynamicCast uses
// a type assertion and yields an empty handle when it fails.
//
// # Errors
//
// Dereferencing an empty handle with Deref and incrementing a count that
// has already reached zero are contract violations and panic with an
// *errors.Error. Failed casts and failed locks are reported as empty
// handles; SharedFromThis and Upgrade return errors matching ErrNotOwned
// and ErrExpired.
//
// # Observers
//
// Attach an Observer through Options to receive the created, destroyed and
// released transitions of a block:
//
//	p := shared.NewWithOptions(v, nil, shared.Options{
//	    Label:    "upstream",
//	    Observer: shared.ObserverFunc(func(e shared.Event) { ... }),
//	})
package shared
