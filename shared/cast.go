package shared

// Alias returns a handle that stores v but shares ownership of owner's
// whole allocation. Use it to hand out a field, element or interface view
// of an owned object: v stays valid for as long as the returned handle
// lives, and releasing it never tears v down on its own.
//
// An empty owner yields an empty handle.
func Alias[U, T any](owner Ptr[T], v U) Ptr[U] {
	if owner.cb == nil {
		return Ptr[U]{}
	}
	owner.cb.IncStrong()
	return Ptr[U]{value: v, cb: owner.cb}
}

// AliasMove is Alias that consumes owner's reference instead of adding
// one. owner is left empty.
func AliasMove[U, T any](owner *Ptr[T], v U) Ptr[U] {
	o := owner.Move()
	if o.cb == nil {
		return Ptr[U]{}
	}
	return Ptr[U]{value: v, cb: o.cb}
}

// AliasWeak returns a weak handle that observes owner's allocation but
// yields v when locked. An empty owner yields an empty handle.
func AliasWeak[U, T any](owner Weak[T], v U) Weak[U] {
	if owner.cb == nil {
		return Weak[U]{}
	}
	return observe(owner.cb, v)
}

// StaticCast retypes p with a conversion the caller vouches for, such as
// widening to an interface or projecting an embedded struct. The result
// shares p's control block. conv is not called when p is empty.
func StaticCast[U, T any](p Ptr[T], conv func(T) U) Ptr[U] {
	if p.cb == nil {
		return Ptr[U]{}
	}
	return Alias(p, conv(p.value))
}

// DynamicCast retypes p with a runtime type assertion to U. On success the
// result shares p's control block; on failure it is empty. p is never
// modified.
func DynamicCast[U, T any](p Ptr[T]) Ptr[U] {
	if p.cb == nil {
		return Ptr[U]{}
	}
	u, ok := any(p.value).(U)
	if !ok {
		return Ptr[U]{}
	}
	return Alias(p, u)
}

// DynamicCastWeak is DynamicCast for weak handles. The result observes the
// same block without affecting the payload's lifetime. An expired w yields
// an empty handle, since its value is no longer available to check.
func DynamicCastWeak[U, T any](w Weak[T]) Weak[U] {
	p := w.Lock()
	if p.Empty() {
		return Weak[U]{}
	}
	defer p.Reset()

	u, ok := any(p.value).(U)
	if !ok {
		return Weak[U]{}
	}
	return observe(p.cb, u)
}
