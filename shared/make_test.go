package shared

import (
	"sync"
	"testing"
)

type buffer struct {
	mu      sync.Mutex
	data    []byte
	dropped *int
}

func (b *buffer) Drop() {
	*b.dropped++
}

func TestMake_CombinedLayout(t *testing.T) {
	p := Make(object{id: 9})
	if p.Layout() != LayoutCombined {
		t.Fatalf("Layout = %v, want combined", p.Layout())
	}
	if p.UseCount() != 1 || p.WeakCount() != 0 {
		t.Fatalf("counts = %d/%d, want 1/0", p.UseCount(), p.WeakCount())
	}
	if p.Deref().id != 9 {
		t.Fatal("payload should hold the forwarded value")
	}
	p.Reset()
}

func TestMake_StoresCopy(t *testing.T) {
	v := object{id: 1}
	p := Make(v)
	p.Get().id = 2
	if v.id != 1 {
		t.Fatal("Make should store its own copy")
	}
	p.Reset()
}

func TestMakeFunc_InPlace(t *testing.T) {
	var seen *buffer
	calls := 0
	dropped := 0

	p := MakeFunc(func(b *buffer) {
		calls++
		seen = b
		b.data = []byte("payload")
		b.dropped = &dropped
	})

	if calls != 1 {
		t.Fatalf("init called %d times, want 1", calls)
	}
	if p.Get() != seen {
		t.Fatal("handle should point at the slot init constructed")
	}

	p.Get().mu.Lock()
	p.Get().data = append(p.Get().data, '!')
	p.Get().mu.Unlock()

	raw := p.Get()
	p.Reset()
	if dropped != 1 {
		t.Fatalf("Drop called %d times, want 1", dropped)
	}
	// The slot is zeroed after teardown so its referents become unreachable.
	if raw.data != nil {
		t.Fatal("payload slot should be cleared after teardown")
	}
}

func TestMakeFunc_NilInit(t *testing.T) {
	p := MakeFunc[object](nil)
	if p.Empty() || p.Get().id != 0 {
		t.Fatal("MakeFunc(nil) should own a zero value")
	}
	p.Reset()
}

func TestMake_IDsDiffer(t *testing.T) {
	a := Make(object{})
	b := Make(object{})
	if a.ID() == 0 || a.ID() == b.ID() {
		t.Fatal("each allocation should get its own block id")
	}
	a.Reset()
	b.Reset()
}
