package shared

import (
	"io"
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/refcount/shared/internal/ctrl"
)

// Dropper is optionally implemented by payloads that need cleanup when the
// last owner lets go.
type Dropper interface {
	Drop()
}

// lifecycle carries what both layouts need to report their transitions.
type lifecycle struct {
	opts Options
}

func (l *lifecycle) emit(b *ctrl.Block, typ EventType) {
	if ce := Logger().Check(zap.DebugLevel, "handle "+typ.String()); ce != nil {
		ce.Write(
			zap.Uint64("block_id", b.ID()),
			zap.Stringer("layout", b.Layout()),
			zap.String("label", l.opts.Label),
		)
	}
	if l.opts.Observer != nil {
		l.opts.Observer.OnHandleEvent(Event{
			Label:   l.opts.Label,
			BlockID: b.ID(),
			Type:    typ,
			Layout:  b.Layout(),
		})
	}
}

// external owns a payload allocated by the caller. The block is allocated
// on its own and points back here for teardown.
type external[T any] struct {
	lifecycle
	blk     *ctrl.Block
	value   T
	deleter func(T)
}

func (e *external[T]) Destroy() {
	v := e.value
	var zero T
	e.value = zero

	defer e.emit(e.blk, EventDestroyed)
	releaseSelf(v)
	e.deleter(v)
}

func (e *external[T]) Dealloc() {
	e.deleter = nil
	e.emit(e.blk, EventReleased)
}

// inline holds the block and the payload in one allocation.
type inline[T any] struct {
	lifecycle
	blk   ctrl.Block
	value T
}

func (in *inline[T]) Destroy() {
	defer in.emit(&in.blk, EventDestroyed)

	p := &in.value
	releaseSelf(p)
	defaultTeardown(p)
	var zero T
	in.value = zero
}

func (in *inline[T]) Dealloc() {
	in.emit(&in.blk, EventReleased)
}

// defaultTeardown is the deleter used when the caller supplies none.
// Memory itself is reclaimed by the Go runtime once unreachable; only
// resources behind Drop or Close need explicit release.
func defaultTeardown[T any](v T) {
	switch r := any(v).(type) {
	case Dropper:
		r.Drop()
	case io.Closer:
		if err := r.Close(); err != nil {
			Logger().Warn("close during teardown failed",
				zap.String("type", reflect.TypeOf(v).String()),
				zap.Error(err))
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// addrOf returns the address a reference-like value points to.
func addrOf(v any) (uintptr, bool) {
	if v == nil {
		return 0, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan:
		return rv.Pointer(), true
	}
	return 0, false
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
