package resource

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/refcount/shared"
)

// Table maps integer handles to shared handles of T. The table owns one
// strong reference per entry; callers get their own through Borrow or
// Take and observe entries through Watch.
type Table[T any] struct {
	backend   *LocalBackend[T]
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
	label     string
}

// NewTable creates a new table with default options.
func NewTable[T any]() *Table[T] {
	return NewTableWithOptions[T](DefaultOptions())
}

// NewTableWithOptions creates a new table with the given options.
func NewTableWithOptions[T any](opts Options) *Table[T] {
	if opts.Label == "" {
		opts.Label = DefaultOptions().Label
	}
	backend := NewLocalBackend[T](opts.InitialCapacity)
	backend.label = opts.Label
	return &Table[T]{
		backend: backend,
		label:   opts.Label,
	}
}

// Insert stores p and returns its handle. The table takes over p's
// reference and p is left empty, even when Insert fails and returns 0.
func (t *Table[T]) Insert(typeID uint32, p *shared.Ptr[T]) Handle {
	owned := p.Move()

	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		owned.Reset()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, owned)
	if err != nil {
		Logger().Debug("insert rejected",
			zap.String("table", t.label),
			zap.Uint32("type_id", typeID),
			zap.Error(err))
		owned.Reset()
		return 0
	}

	t.notify(Event{
		Type:    EventCreated,
		Handle:  handle,
		TypeID:  typeID,
		BlockID: owned.ID(),
		Value:   owned.Get(),
	})

	return handle
}

// InsertValue wraps v in a new shared handle and stores it.
func (t *Table[T]) InsertValue(typeID uint32, v T) Handle {
	p := shared.NewWithOptions(v, nil, shared.Options{Label: t.label})
	return t.Insert(typeID, &p)
}

// Get returns the stored value without taking a reference. The value is
// only guaranteed to stay alive while the entry does.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	p, ok := t.backend.Get(handle)
	if !ok {
		var zero T
		return zero, false
	}
	return p.Get(), true
}

// Borrow returns a new owning reference to an entry. The caller must Reset
// it. Removing the entry while a borrow is outstanding keeps the value
// alive until the borrow is released.
func (t *Table[T]) Borrow(handle Handle) (shared.Ptr[T], bool) {
	return t.borrow(handle, func(uint32) bool { return true })
}

// BorrowTyped is Borrow restricted to entries of the given type ID.
func (t *Table[T]) BorrowTyped(handle Handle, typeID uint32) (shared.Ptr[T], bool) {
	return t.borrow(handle, func(id uint32) bool { return id == typeID })
}

func (t *Table[T]) borrow(handle Handle, match func(uint32) bool) (shared.Ptr[T], bool) {
	p, typeID, ok := t.backend.Borrow(handle)
	if !ok {
		return p, false
	}
	if !match(typeID) {
		p.Reset()
		return p, false
	}

	t.notify(Event{
		Type:    EventBorrowed,
		Handle:  handle,
		TypeID:  typeID,
		BlockID: p.ID(),
		Value:   p.Get(),
	})

	return p, true
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table[T]) GetTyped(handle Handle, typeID uint32) (T, bool) {
	actualTypeID, ok := t.backend.TypeID(handle)
	if !ok || actualTypeID != typeID {
		var zero T
		return zero, false
	}
	return t.Get(handle)
}

// Watch returns a weak handle to an entry. It expires once the entry is
// removed and every borrow has been released.
func (t *Table[T]) Watch(handle Handle) (shared.Weak[T], bool) {
	return t.backend.Watch(handle)
}

// Take removes an entry and transfers the table's reference to the
// caller, who must Reset it.
func (t *Table[T]) Take(handle Handle) (shared.Ptr[T], bool) {
	p, typeID, ok := t.backend.Drop(handle)
	if !ok {
		return p, false
	}

	t.notify(Event{
		Type:    EventTaken,
		Handle:  handle,
		TypeID:  typeID,
		BlockID: p.ID(),
		Value:   p.Get(),
	})

	return p, true
}

// Remove drops the table's reference to an entry. The value is torn down
// if no borrow is outstanding. Observers are notified while the value is
// still live.
func (t *Table[T]) Remove(handle Handle) bool {
	p, typeID, ok := t.backend.Drop(handle)
	if !ok {
		return false
	}

	t.notify(Event{
		Type:    EventDropped,
		Handle:  handle,
		TypeID:  typeID,
		BlockID: p.ID(),
		Value:   p.Get(),
	})
	if n := p.UseCount(); n > 1 {
		Logger().Debug("entry removed with outstanding borrows",
			zap.String("table", t.label),
			zap.Uint32("handle", uint32(handle)),
			zap.Int("borrows", n-1))
	}
	p.Reset()
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active resources.
func (t *Table[T]) Len() int {
	return t.backend.Len()
}

// Each calls fn for every entry until fn returns false. Values are
// borrowed views; use Borrow to keep one past the call.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.backend.Each(func(h Handle, _ uint32, p shared.Ptr[T]) bool {
		return fn(h, p.Get())
	})
}

// Clear drops all resources.
func (t *Table[T]) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, _ uint32, _ shared.Ptr[T]) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close releases all resources and stops accepting operations.
func (t *Table[T]) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	Logger().Debug("closing table",
		zap.String("table", t.label),
		zap.Int("entries", t.backend.Len()))

	return t.backend.Close()
}

// Backend returns the underlying storage.
func (t *Table[T]) Backend() Backend[T] {
	return t.backend
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
