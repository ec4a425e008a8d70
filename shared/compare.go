package shared

import "cmp"

// Same reports whether a and b store the same value, by identity for
// reference-like values (pointers, maps, slices, channels, funcs) and by
// == otherwise. Ownership is ignored: an alias and its owner compare equal
// only if they store the same address.
func Same[T, U any](a Ptr[T], b Ptr[U]) bool {
	aa, aok := addrOf(any(a.value))
	ba, bok := addrOf(any(b.value))
	if aok && bok {
		return aa == ba
	}
	return any(a.value) == any(b.value)
}

// Compare orders handles by the address of their stored value, the way raw
// pointers are ordered. Empty handles sort first.
func Compare[T any](a, b Ptr[T]) int {
	aa, _ := addrOf(any(a.value))
	ba, _ := addrOf(any(b.value))
	return cmp.Compare(aa, ba)
}

// OwnerBefore orders handles by control block rather than stored value,
// so every alias of one allocation is equivalent. Empty handles sort
// first.
func OwnerBefore[T, U any](a Ptr[T], b Ptr[U]) bool {
	return a.ID() < b.ID()
}

// SameOwner reports whether a and b share a control block.
func SameOwner[T, U any](a Ptr[T], b Ptr[U]) bool {
	return a.cb == b.cb
}
