package shared

import (
	"fmt"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/shared/internal/ctrl"
)

var (
	// ErrEmpty matches dereferences of handles that own nothing.
	ErrEmpty = errors.New(errors.PhaseAccess, errors.KindEmptyHandle).Build()
	// ErrNotOwned matches self references requested on unowned objects.
	ErrNotOwned = errors.New(errors.PhaseAccess, errors.KindNotOwned).Build()
	// ErrExpired matches upgrades of weak handles whose payload is gone.
	ErrExpired = errors.New(errors.PhaseAccess, errors.KindExpired).Build()
)

// Ptr is an owning, reference-counted handle to a value of type T.
// T is normally a pointer or interface type.
//
// The zero Ptr is empty. A Ptr obtained from New, Make, Clone, Lock or a
// cast holds one strong reference that must eventually be given back with
// Reset (or transferred with Move, MoveFrom or Adopt). Assigning a Ptr with
// = copies the handle without touching the count: the copy is a borrowed
// view of the same reference and must not be Reset on its own.
//
// Ptr values are comparable when T is, so they can be used directly as map
// keys; equality then means same value and same control block.
type Ptr[T any] struct {
	value T
	cb    *ctrl.Block
}

// New takes ownership of v using the default teardown: Drop if v is a
// Dropper, Close if v is an io.Closer, nothing otherwise.
// A nil v yields an empty handle.
func New[T any](v T) Ptr[T] {
	return NewWithOptions(v, nil, DefaultOptions())
}

// NewWithDeleter takes ownership of v and runs del on it when the last
// owner is released. del may release resources other than memory.
func NewWithDeleter[T any](v T, del func(T)) Ptr[T] {
	return NewWithOptions(v, del, DefaultOptions())
}

// NewWithOptions takes ownership of v with an optional deleter (nil selects
// the default teardown) and block options.
func NewWithOptions[T any](v T, del func(T), opts Options) Ptr[T] {
	if isNil(any(v)) {
		return Ptr[T]{}
	}
	if del == nil {
		del = defaultTeardown[T]
	}

	e := &external[T]{
		lifecycle: lifecycle{opts: opts},
		value:     v,
		deleter:   del,
	}
	e.blk = ctrl.New(e)
	e.emit(e.blk, EventCreated)

	bindSelf(v, e.blk)
	return Ptr[T]{value: v, cb: e.blk}
}

// Make allocates v and its control block together and returns an owning
// handle to the stored copy.
func Make[T any](v T) Ptr[*T] {
	return MakeWithOptions(v, DefaultOptions())
}

// MakeWithOptions is Make with block options.
func MakeWithOptions[T any](v T, opts Options) Ptr[*T] {
	in := &inline[T]{
		lifecycle: lifecycle{opts: opts},
		value:     v,
	}
	// v was copied in; a self reference carried by the copy was never counted.
	if b, ok := any(&in.value).(selfBinder); ok {
		b.clearSelf()
	}
	return in.own()
}

// MakeFunc allocates a zero T together with its control block, runs init
// on it in place and returns an owning handle. Use it for types that must
// not be copied, such as types embedding a mutex or a SelfRef.
// The object is not owned while init runs.
func MakeFunc[T any](init func(*T)) Ptr[*T] {
	return MakeFuncWithOptions(init, DefaultOptions())
}

// MakeFuncWithOptions is MakeFunc with block options.
func MakeFuncWithOptions[T any](init func(*T), opts Options) Ptr[*T] {
	in := &inline[T]{lifecycle: lifecycle{opts: opts}}
	if init != nil {
		init(&in.value)
	}
	return in.own()
}

func (in *inline[T]) own() Ptr[*T] {
	in.blk.Init(in, ctrl.LayoutCombined)
	in.emit(&in.blk, EventCreated)

	p := Ptr[*T]{value: &in.value, cb: &in.blk}
	bindSelf(p.value, p.cb)
	return p
}

// Clone returns a new owning handle to the same value (copy construction).
func (p Ptr[T]) Clone() Ptr[T] {
	if p.cb != nil {
		p.cb.IncStrong()
	}
	return p
}

// Move transfers the reference out of p, leaving p empty. Counts are untouched.
func (p *Ptr[T]) Move() Ptr[T] {
	out := *p
	*p = Ptr[T]{}
	return out
}

// Assign makes p share ownership with o (copy assignment). o keeps its own
// reference. Assigning a handle to itself is a no-op.
func (p *Ptr[T]) Assign(o Ptr[T]) {
	if p.cb == o.cb {
		p.value = o.value
		return
	}
	if o.cb != nil {
		o.cb.IncStrong()
	}
	old := *p
	*p = o
	old.Reset()
}

// Adopt replaces p's reference with o's, consuming o (move assignment from
// a temporary, e.g. p.Adopt(shared.New(v))).
func (p *Ptr[T]) Adopt(o Ptr[T]) {
	old := *p
	*p = o
	old.Reset()
}

// MoveFrom transfers o's reference into p, releasing p's previous
// reference and leaving o empty. Moving a handle into itself is a no-op.
func (p *Ptr[T]) MoveFrom(o *Ptr[T]) {
	if p == o {
		return
	}
	p.Adopt(o.Move())
}

// Swap exchanges the references held by p and o.
func (p *Ptr[T]) Swap(o *Ptr[T]) {
	*p, *o = *o, *p
}

// Reset releases p's reference, if any, and leaves p empty. Releasing the
// last owner tears the payload down before Reset returns.
func (p *Ptr[T]) Reset() {
	cb := p.cb
	*p = Ptr[T]{}
	if cb != nil {
		cb.DecStrong()
	}
}

// Get returns the stored value without affecting counts; the zero T if p
// is empty.
func (p Ptr[T]) Get() T {
	return p.value
}

// Deref returns the stored value. p must not be empty: dereferencing an
// empty handle is a contract violation and panics with ErrEmpty's kind.
func (p Ptr[T]) Deref() T {
	if p.cb == nil {
		panic(errors.EmptyHandle(typeName[T]()))
	}
	return p.value
}

// Empty reports whether p owns nothing.
func (p Ptr[T]) Empty() bool {
	return p.cb == nil
}

// UseCount returns the number of owners of p's payload, 0 if p is empty.
// Diagnostic only: the count may change as soon as it is read.
func (p Ptr[T]) UseCount() int {
	if p.cb == nil {
		return 0
	}
	return int(p.cb.UseCount())
}

// WeakCount returns the number of weak handles observing p's payload.
// Diagnostic only.
func (p Ptr[T]) WeakCount() int {
	if p.cb == nil {
		return 0
	}
	return int(p.cb.WeakCount())
}

// ID returns the control block's sequence number, 0 if p is empty.
func (p Ptr[T]) ID() uint64 {
	if p.cb == nil {
		return 0
	}
	return p.cb.ID()
}

// Layout returns how p's payload was allocated.
func (p Ptr[T]) Layout() Layout {
	if p.cb == nil {
		return LayoutSeparate
	}
	return p.cb.Layout()
}

// Weak returns a weak handle observing p's payload.
func (p Ptr[T]) Weak() Weak[T] {
	return WeakOf(p)
}

func (p Ptr[T]) String() string {
	if p.cb == nil {
		return "shared.Ptr[" + typeName[T]() + "](empty)"
	}
	return fmt.Sprintf("shared.Ptr[%s](block=%d use=%d)", typeName[T](), p.cb.ID(), p.cb.UseCount())
}
