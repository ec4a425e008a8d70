package resource

import (
	"reflect"
	"sync"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/shared"
)

var ErrClosed = errors.Closed(errors.PhaseTable, "resource backend")

// LocalBackend is an in-memory resource backend. Each live entry owns one
// strong reference to its resource.
type LocalBackend[T any] struct {
	entries  []entry[T]
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
	label    string
}

type entry[T any] struct {
	ptr    shared.Ptr[T]
	typeID uint32
	valid  bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend[T any](capacity int) *LocalBackend[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &LocalBackend[T]{
		entries:  make([]entry[T], 0, capacity),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores p and returns a handle. On error the caller keeps p.
func (b *LocalBackend[T]) Create(typeID uint32, p shared.Ptr[T]) (Handle, error) {
	if p.Empty() {
		return 0, errors.New(errors.PhaseTable, errors.KindNilPointer).
			Label(b.label).
			GoType("shared.Ptr[" + reflect.TypeFor[T]().String() + "]").
			Detail("empty handle cannot be stored").
			Build()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	e := entry[T]{
		typeID: typeID,
		ptr:    p,
		valid:  true,
	}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// Get returns a borrowed view of the stored handle.
func (b *LocalBackend[T]) Get(handle Handle) (shared.Ptr[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return shared.Ptr[T]{}, false
	}
	return e.ptr, true
}

// Borrow returns a new owning reference to the stored resource. The caller
// must Reset it; the resource outlives its table entry until then.
// It also returns the entry's type ID.
func (b *LocalBackend[T]) Borrow(handle Handle) (shared.Ptr[T], uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return shared.Ptr[T]{}, 0, false
	}
	return e.ptr.Clone(), e.typeID, true
}

// Watch returns a weak reference to the stored resource.
func (b *LocalBackend[T]) Watch(handle Handle) (shared.Weak[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return shared.Weak[T]{}, false
	}
	return e.ptr.Weak(), true
}

// Drop removes a resource and returns the table's reference to it.
func (b *LocalBackend[T]) Drop(handle Handle) (shared.Ptr[T], uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handle == 0 || int(handle) > len(b.entries) {
		return shared.Ptr[T]{}, 0, false
	}

	e := &b.entries[handle-1]
	if !e.valid {
		return shared.Ptr[T]{}, 0, false
	}

	p := e.ptr.Move()
	typeID := e.typeID
	e.valid = false
	e.typeID = 0
	b.freeList = append(b.freeList, handle)

	return p, typeID, true
}

// Close releases all resources.
func (b *LocalBackend[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var held []shared.Ptr[T]
	for i := range b.entries {
		if b.entries[i].valid {
			held = append(held, b.entries[i].ptr.Move())
			b.entries[i].valid = false
		}
	}
	b.entries = nil
	b.freeList = nil
	b.mu.Unlock()

	// Teardown runs outside the lock; deleters may call back into the table.
	for i := range held {
		held[i].Reset()
	}
	return nil
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend[T]) TypeID(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return 0, false
	}
	return e.typeID, true
}

// Len returns the number of active resources.
func (b *LocalBackend[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all active resources. The handles passed to fn are
// borrowed views valid only for the duration of the call.
func (b *LocalBackend[T]) Each(fn func(Handle, uint32, shared.Ptr[T]) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.typeID, e.ptr) {
				break
			}
		}
	}
}

func (b *LocalBackend[T]) lookup(handle Handle) (*entry[T], bool) {
	if handle == 0 || int(handle) > len(b.entries) {
		return nil, false
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil, false
	}
	return e, true
}
