package shared

import (
	"fmt"

	"github.com/wippyai/refcount/errors"
)

// Unique is a handle with exactly one owner and no control block. It tears
// its value down on Reset, using the same default teardown as Ptr.
//
// The zero Unique is empty. Like Ptr, assigning a Unique with = copies the
// handle without transferring ownership; use Move or MoveFrom to hand it
// over and Share to turn it into a Ptr.
type Unique[T any] struct {
	value   T
	deleter func(T)
	live    bool
}

// NewUnique takes sole ownership of v. A nil v yields an empty handle.
func NewUnique[T any](v T) Unique[T] {
	return NewUniqueWithDeleter(v, nil)
}

// NewUniqueWithDeleter takes sole ownership of v and runs del on it when
// the handle is reset. A nil del selects the default teardown.
func NewUniqueWithDeleter[T any](v T, del func(T)) Unique[T] {
	if isNil(any(v)) {
		return Unique[T]{}
	}
	if del == nil {
		del = defaultTeardown[T]
	}
	return Unique[T]{value: v, deleter: del, live: true}
}

// MakeUnique allocates a copy of v and returns its sole owner.
func MakeUnique[T any](v T) Unique[*T] {
	p := new(T)
	*p = v
	return NewUnique(p)
}

// MakeUniqueFunc allocates a zero T, runs init on it in place and returns
// its sole owner.
func MakeUniqueFunc[T any](init func(*T)) Unique[*T] {
	p := new(T)
	if init != nil {
		init(p)
	}
	return NewUnique(p)
}

// MakeUniqueSlice allocates n zeroed elements and returns their sole owner.
// n must not be negative.
func MakeUniqueSlice[T any](n int) Unique[[]T] {
	return NewUnique(make([]T, n))
}

// ConvertUnique transfers u's value into a handle of another type, such as
// an interface the value implements. u is left empty. The deleter still
// runs on the original value.
func ConvertUnique[U, T any](u *Unique[T], conv func(T) U) Unique[U] {
	if !u.live {
		return Unique[U]{}
	}
	o := u.Move()
	return Unique[U]{
		value:   conv(o.value),
		deleter: func(U) { o.deleter(o.value) },
		live:    true,
	}
}

// Get returns the owned value, or the zero T if u is empty.
func (u Unique[T]) Get() T {
	return u.value
}

// Deref returns the owned value. u must not be empty.
func (u Unique[T]) Deref() T {
	if !u.live {
		panic(errors.EmptyHandle(typeName[T]()))
	}
	return u.value
}

// Empty reports whether u owns nothing.
func (u Unique[T]) Empty() bool {
	return !u.live
}

// Move transfers ownership out of u, leaving u empty.
func (u *Unique[T]) Move() Unique[T] {
	out := *u
	*u = Unique[T]{}
	return out
}

// MoveFrom tears down u's current value and takes over o's, leaving o empty.
func (u *Unique[T]) MoveFrom(o *Unique[T]) {
	if u == o {
		return
	}
	old := *u
	*u = o.Move()
	old.Reset()
}

// Swap exchanges the values owned by u and o.
func (u *Unique[T]) Swap(o *Unique[T]) {
	*u, *o = *o, *u
}

// Release gives up ownership without tearing the value down and returns
// it. u is left empty.
func (u *Unique[T]) Release() T {
	out := u.Move()
	return out.value
}

// Reset tears the owned value down, if any, and leaves u empty.
func (u *Unique[T]) Reset() {
	old := u.Move()
	if old.live {
		old.deleter(old.value)
	}
}

// Share converts u into a shared handle that keeps u's deleter. u is left
// empty.
func (u *Unique[T]) Share() Ptr[T] {
	return u.ShareWithOptions(DefaultOptions())
}

// ShareWithOptions is Share with block options.
func (u *Unique[T]) ShareWithOptions(opts Options) Ptr[T] {
	o := u.Move()
	if !o.live {
		return Ptr[T]{}
	}
	return NewWithOptions(o.value, o.deleter, opts)
}

func (u Unique[T]) String() string {
	if !u.live {
		return "shared.Unique[" + typeName[T]() + "](empty)"
	}
	return fmt.Sprintf("shared.Unique[%s](%v)", typeName[T](), u.value)
}
