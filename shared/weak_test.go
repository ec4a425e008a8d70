package shared

import (
	"errors"
	"runtime"
	"testing"
	"time"
)

type object struct {
	id int
}

func TestWeak_ZeroValue(t *testing.T) {
	var w Weak[*object]
	if !w.Empty() || !w.Expired() {
		t.Fatal("zero Weak should be empty and expired")
	}
	if !w.Lock().Empty() {
		t.Fatal("Lock on empty Weak should return an empty Ptr")
	}
	if w.UseCount() != 0 || w.WeakCount() != 0 {
		t.Fatal("zero Weak should report zero counts")
	}
	w.Reset()
}

func TestWeak_LifecycleScenario(t *testing.T) {
	rec := &recorder{}
	p := MakeWithOptions(object{id: 1}, Options{Observer: rec})

	if p.UseCount() != 1 || p.WeakCount() != 0 {
		t.Fatalf("after Make: strong=%d weak=%d, want 1/0", p.UseCount(), p.WeakCount())
	}

	w := p.Weak()
	if p.WeakCount() != 1 {
		t.Fatalf("weak = %d, want 1", p.WeakCount())
	}

	p.Reset()
	if rec.count(EventDestroyed) != 1 {
		t.Fatal("payload should be destroyed")
	}
	if w.UseCount() != 0 || w.WeakCount() != 1 {
		t.Fatalf("after reset: strong=%d weak=%d, want 0/1", w.UseCount(), w.WeakCount())
	}
	if !w.Expired() {
		t.Fatal("Weak should be expired")
	}
	if !w.Lock().Empty() {
		t.Fatal("Lock on expired Weak should return an empty Ptr")
	}
	if rec.count(EventReleased) != 0 {
		t.Fatal("metadata released while a weak handle exists")
	}

	w.Reset()
	if rec.count(EventReleased) != 1 {
		t.Fatal("metadata should be released by the last weak handle")
	}
}

func TestWeak_LockLive(t *testing.T) {
	p := Make(object{id: 7})
	w := p.Weak()
	defer w.Reset()

	before := p.UseCount()
	q := w.Lock()
	if q.Empty() {
		t.Fatal("Lock on live Weak should succeed")
	}
	if q.Get() != p.Get() {
		t.Fatal("locked handle should store the original pointer")
	}
	if q.UseCount() != before+1 {
		t.Fatalf("UseCount = %d, want %d", q.UseCount(), before+1)
	}
	if q.Deref().id != 7 {
		t.Fatal("locked handle should reach the payload")
	}

	q.Reset()
	p.Reset()
}

func TestWeak_ExpiresWhileOthersPersist(t *testing.T) {
	p := Make(object{id: 3})
	w1 := p.Weak()
	w2 := w1.Clone()
	w3 := WeakOf(p)

	if w1.WeakCount() != 3 {
		t.Fatalf("WeakCount = %d, want 3", w1.WeakCount())
	}

	p.Reset()
	for i, w := range []Weak[*object]{w1, w2, w3} {
		if !w.Expired() {
			t.Fatalf("weak %d should be expired once the last owner is gone", i)
		}
	}

	w1.Reset()
	w2.Reset()
	w3.Reset()
}

func TestWeak_Upgrade(t *testing.T) {
	p := Make(object{id: 1})
	w := p.Weak()
	defer w.Reset()

	q, err := w.Upgrade()
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	q.Reset()
	p.Reset()

	_, err = w.Upgrade()
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("Upgrade error = %v, want ErrExpired", err)
	}
}

func TestWeak_AssignObserveSwap(t *testing.T) {
	sp3 := Make(object{id: 3})
	var wp3 Weak[*object]

	// wp3 = temp_sp
	{
		temp := sp3.Clone()
		wp3.Observe(temp)
		if sp3.UseCount() != 2 {
			t.Fatalf("UseCount = %d, want 2", sp3.UseCount())
		}
		temp.Reset()
	}
	if sp3.UseCount() != 1 || wp3.Expired() {
		t.Fatal("object should survive with sp3")
	}

	sp4 := Make(object{id: 4})
	wp4 := sp4.Weak()
	var wp5 Weak[*object]
	wp5.Assign(wp4)
	if wp4.WeakCount() != 2 {
		t.Fatalf("WeakCount = %d, want 2", wp4.WeakCount())
	}

	wp4.Reset()
	if wp5.Expired() {
		t.Fatal("wp5 is an independent copy and should still observe object 4")
	}

	sp5 := Make(object{id: 5})
	wp6 := sp5.Weak()
	wp7 := wp5.Clone()

	wp6.Swap(&wp7)
	if id := wp6.Lock(); id.Deref().id != 4 {
		t.Fatal("after swap wp6 should observe object 4")
	} else {
		id.Reset()
	}
	if id := wp7.Lock(); id.Deref().id != 5 {
		t.Fatal("after swap wp7 should observe object 5")
	} else {
		id.Reset()
	}

	sp3.Reset()
	sp4.Reset()
	sp5.Reset()

	for i, w := range []Weak[*object]{wp3, wp5, wp6, wp7} {
		if !w.Expired() {
			t.Fatalf("weak %d should be expired at the end", i)
		}
	}

	wp3.Reset()
	wp5.Reset()
	wp6.Reset()
	wp7.Reset()
}

func TestWeak_SelfAssignAndMove(t *testing.T) {
	p := Make(object{})
	w := p.Weak()

	w.Assign(w)
	if w.WeakCount() != 1 {
		t.Fatalf("self assign changed WeakCount to %d", w.WeakCount())
	}

	w.Observe(p)
	if w.WeakCount() != 1 {
		t.Fatalf("re-observing the same block changed WeakCount to %d", w.WeakCount())
	}

	m := w.Move()
	if !w.Empty() || m.WeakCount() != 1 {
		t.Fatal("Move should transfer the weak reference")
	}

	var n Weak[*object]
	n.MoveFrom(&m)
	if !m.Empty() || n.WeakCount() != 1 || !n.OwnedBy(p) {
		t.Fatal("MoveFrom should transfer the weak reference")
	}

	n.Reset()
	p.Reset()
}

func TestWeak_String(t *testing.T) {
	p := Make(object{})
	w := p.Weak()
	p.Reset()
	if w.String() == "" {
		t.Fatal("String should describe the handle")
	}
	w.Reset()
}

type blob struct {
	data [1 << 16]byte
}

// waitReclaimed runs the collector until done is closed.
func waitReclaimed(done <-chan struct{}) bool {
	for i := 0; i < 20; i++ {
		runtime.GC()
		select {
		case <-done:
			return true
		case <-time.After(10 * time.Millisecond):
		}
	}
	return false
}

func TestWeak_ExpiredDoesNotPinPayload(t *testing.T) {
	tests := []struct {
		name    string
		observe func(p Ptr[*blob]) Weak[any]
	}{
		{"cast", func(p Ptr[*blob]) Weak[any] {
			w := p.Weak()
			defer w.Reset()
			return DynamicCastWeak[any](w)
		}},
		{"aliased field", func(p Ptr[*blob]) Weak[any] {
			w := p.Weak()
			defer w.Reset()
			return AliasWeak[any](w, &p.Get().data[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reclaimed := make(chan struct{})
			w := func() Weak[any] {
				b := &blob{}
				runtime.AddCleanup(b, func(ch chan struct{}) { close(ch) }, reclaimed)
				p := New(b)
				w := tt.observe(p)
				p.Reset()
				return w
			}()

			if !waitReclaimed(reclaimed) {
				t.Fatal("payload still reachable through an expired weak handle")
			}
			if !w.Expired() || w.WeakCount() != 1 {
				t.Fatalf("expired=%t weak=%d, want true/1", w.Expired(), w.WeakCount())
			}
			w.Reset()
		})
	}
}

func TestWeak_ExpiredOwnerHandle(t *testing.T) {
	reclaimed := make(chan struct{})
	w := func() Weak[*blob] {
		b := &blob{}
		runtime.AddCleanup(b, func(ch chan struct{}) { close(ch) }, reclaimed)
		p := New(b)
		w := p.Weak()
		p.Reset()
		return w
	}()

	if !waitReclaimed(reclaimed) {
		t.Fatal("payload still reachable through an expired weak handle")
	}
	if !w.Lock().Empty() {
		t.Fatal("expired handle must not lock")
	}
	w.Reset()
}

func TestWeak_ResetUntracksValue(t *testing.T) {
	p := Make(object{})
	for i := 0; i < 100; i++ {
		w := p.Weak()
		c := w.Clone()
		w.Reset()
		c.Reset()
	}
	if n := p.cb.Tracked(); n != 0 {
		t.Fatalf("%d observer values still tracked after every weak handle was reset", n)
	}

	w := p.Weak()
	if p.cb.Tracked() != 1 {
		t.Fatal("live weak handle should be tracked")
	}
	p.Reset()
	if w.cell.value != nil {
		t.Fatal("destroying the payload should clear the observed value")
	}
	w.Reset()
}

func TestWeak_CountDuringTeardown(t *testing.T) {
	var w Weak[*object]
	during := -1
	p := NewWithDeleter(&object{}, func(*object) {
		during = w.WeakCount()
	})
	w = p.Weak()

	p.Reset()
	if during != 1 {
		t.Fatalf("WeakCount inside the deleter = %d, want 1", during)
	}
	if w.WeakCount() != 1 {
		t.Fatalf("WeakCount after teardown = %d, want 1", w.WeakCount())
	}
	w.Reset()
}
