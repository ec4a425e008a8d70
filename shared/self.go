package shared

import (
	"go.uber.org/zap"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/shared/internal/ctrl"
)

// SelfRef lets an object obtain owning handles to itself. Embed it in the
// object's struct, with T set to the handle type the object will be owned
// through (usually a pointer to the struct):
//
//	type Session struct {
//		shared.SelfRef[*Session]
//		id string
//	}
//
//	s := shared.MakeFunc(func(s *Session) { s.id = "a" })
//	again := s.Get().MustSharedFromThis() // owns the same block as s
//
// SelfRef stores only a weak reference, so the object never keeps itself
// alive. The reference is bound once, by the first New or Make that takes
// ownership of the object; clones, casts and aliases never rebind it.
// Before that moment (for example inside a MakeFunc init function) the
// object is not owned and SharedFromThis fails.
//
// SelfRef is not synchronized against teardown: calling SharedFromThis
// through a raw pointer while the last owner is being released is a data
// race. Call it through a live handle.
type SelfRef[T any] struct {
	self Weak[T]
}

// selfBinder is the capability New and Make look for on a payload.
type selfBinder interface {
	bindSelf(v any, cb *ctrl.Block)
	releaseSelf()
	clearSelf()
}

func bindSelf(v any, cb *ctrl.Block) {
	if b, ok := v.(selfBinder); ok {
		b.bindSelf(v, cb)
	}
}

func releaseSelf(v any) {
	if b, ok := v.(selfBinder); ok {
		b.releaseSelf()
	}
}

func (s *SelfRef[T]) bindSelf(v any, cb *ctrl.Block) {
	if s.self.cb != nil {
		return
	}
	t, ok := v.(T)
	if !ok {
		Logger().Warn("self reference not bound: owning handle type does not match",
			zap.String("want", typeName[T]()),
			zap.Uint64("block_id", cb.ID()))
		return
	}
	s.self = observe(cb, t)
}

func (s *SelfRef[T]) releaseSelf() {
	s.self.Reset()
}

func (s *SelfRef[T]) clearSelf() {
	s.self = Weak[T]{}
}

// SharedFromThis returns a new owning handle to the enclosing object.
// It fails with an error matching ErrNotOwned if no handle has taken
// ownership yet, or if the object's owners are all gone.
func (s *SelfRef[T]) SharedFromThis() (Ptr[T], error) {
	p := s.self.Lock()
	if p.Empty() {
		return p, errors.NotOwned(typeName[T]())
	}
	return p, nil
}

// MustSharedFromThis is SharedFromThis for callers that already hold a
// handle to the object. Calling it on an unowned object is a usage error
// and panics.
func (s *SelfRef[T]) MustSharedFromThis() Ptr[T] {
	p, err := s.SharedFromThis()
	if err != nil {
		panic(err)
	}
	return p
}

// WeakFromThis returns a weak handle to the enclosing object, empty if the
// object has never been owned.
func (s *SelfRef[T]) WeakFromThis() Weak[T] {
	return s.self.Clone()
}
