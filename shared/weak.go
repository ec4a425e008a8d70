package shared

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/shared/internal/ctrl"
)

// Weak observes a payload owned by Ptr handles without keeping it alive.
// The stored value must not be used directly; Lock it first.
//
// The zero Weak is empty. Like Ptr, a Weak holds one weak reference that
// must be given back with Reset; plain assignment copies the handle without
// touching the count.
//
// The value is kept in a cell that the control block clears when the
// payload is destroyed, so an expired Weak does not keep the payload's
// memory reachable.
type Weak[T any] struct {
	cell *cell[T]
	cb   *ctrl.Block
}

// cell is shared by a weak handle and its clones.
type cell[T any] struct {
	value T
	refs  atomic.Int64
}

func (c *cell[T]) Expire() {
	var zero T
	c.value = zero
}

// observe adds a weak reference to cb yielding v. The caller must hold a
// reference to cb.
func observe[T any](cb *ctrl.Block, v T) Weak[T] {
	cb.IncWeak()
	c := &cell[T]{value: v}
	c.refs.Store(1)
	if !cb.Track(c) {
		c.Expire()
	}
	return Weak[T]{cell: c, cb: cb}
}

// WeakOf returns a weak handle observing p's payload.
func WeakOf[T any](p Ptr[T]) Weak[T] {
	if p.cb == nil {
		return Weak[T]{}
	}
	return observe(p.cb, p.value)
}

// Clone returns a new weak handle observing the same payload.
func (w Weak[T]) Clone() Weak[T] {
	if w.cb != nil {
		w.cb.IncWeak()
		w.cell.refs.Add(1)
	}
	return w
}

// Move transfers the reference out of w, leaving w empty.
func (w *Weak[T]) Move() Weak[T] {
	out := *w
	*w = Weak[T]{}
	return out
}

// Assign makes w observe what o observes. o keeps its own reference.
func (w *Weak[T]) Assign(o Weak[T]) {
	if *w == o {
		return
	}
	old := *w
	*w = o.Clone()
	old.Reset()
}

// Observe makes w observe p's payload, releasing whatever w observed
// before.
func (w *Weak[T]) Observe(p Ptr[T]) {
	old := *w
	*w = WeakOf(p)
	old.Reset()
}

// MoveFrom transfers o's reference into w, leaving o empty.
func (w *Weak[T]) MoveFrom(o *Weak[T]) {
	if w == o {
		return
	}
	old := *w
	*w = o.Move()
	old.Reset()
}

// Swap exchanges the references held by w and o.
func (w *Weak[T]) Swap(o *Weak[T]) {
	*w, *o = *o, *w
}

// Reset drops the observation and leaves w empty.
func (w *Weak[T]) Reset() {
	c, cb := w.cell, w.cb
	*w = Weak[T]{}
	if cb == nil {
		return
	}
	if c.refs.Add(-1) == 0 {
		cb.Untrack(c)
	}
	cb.DecWeak()
}

// Expired reports whether the observed payload is gone. An empty handle is
// always expired.
func (w Weak[T]) Expired() bool {
	return w.cb == nil || w.cb.Expired()
}

// Lock returns an owning handle to the observed payload, or an empty one if
// the payload has already been destroyed. It never revives a payload whose
// last owner is being released concurrently.
func (w Weak[T]) Lock() Ptr[T] {
	if w.cb == nil || !w.cb.TryLockStrong() {
		return Ptr[T]{}
	}
	return Ptr[T]{value: w.cell.value, cb: w.cb}
}

// Upgrade is Lock that reports expiry as an error matching ErrExpired.
func (w Weak[T]) Upgrade() (Ptr[T], error) {
	p := w.Lock()
	if p.Empty() {
		return p, errors.Expired(typeName[T]())
	}
	return p, nil
}

// Empty reports whether w observes nothing.
func (w Weak[T]) Empty() bool {
	return w.cb == nil
}

// UseCount returns the number of owners of the observed payload, 0 if it
// has expired or w is empty. Diagnostic only.
func (w Weak[T]) UseCount() int {
	if w.cb == nil {
		return 0
	}
	return int(w.cb.UseCount())
}

// WeakCount returns the number of weak handles observing the payload,
// including w. Diagnostic only.
func (w Weak[T]) WeakCount() int {
	if w.cb == nil {
		return 0
	}
	return int(w.cb.WeakCount())
}

// ID returns the observed control block's sequence number, 0 if empty.
func (w Weak[T]) ID() uint64 {
	if w.cb == nil {
		return 0
	}
	return w.cb.ID()
}

// OwnedBy reports whether w observes p's control block.
func (w Weak[T]) OwnedBy(p Ptr[T]) bool {
	return w.cb != nil && w.cb == p.cb
}

func (w Weak[T]) String() string {
	if w.cb == nil {
		return "shared.Weak[" + typeName[T]() + "](empty)"
	}
	return fmt.Sprintf("shared.Weak[%s](block=%d use=%d expired=%t)",
		typeName[T](), w.cb.ID(), w.cb.UseCount(), w.cb.Expired())
}
