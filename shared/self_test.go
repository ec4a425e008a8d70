package shared

import (
	"errors"
	"testing"
)

type student struct {
	SelfRef[*student]
	name    string
	age     int
	dropped int
}

func (s *student) handle() Ptr[*student] {
	return s.MustSharedFromThis()
}

func (s *student) Drop() {
	s.dropped++
}

func TestSelfRef_FromHandle(t *testing.T) {
	sp := New(&student{name: "Marcus", age: 23})
	before := sp.UseCount()

	again := sp.Get().handle()
	if again.Get() != sp.Get() {
		t.Fatal("SharedFromThis should return the owning pointer")
	}
	if again.UseCount() != before+1 {
		t.Fatalf("UseCount = %d, want %d", again.UseCount(), before+1)
	}
	if !SameOwner(sp, again) {
		t.Fatal("SharedFromThis should share the original control block")
	}

	again.Reset()
	sp.Reset()
}

func TestSelfRef_FromMake(t *testing.T) {
	sp := Make(student{name: "Marcus", age: 23})
	again := sp.Get().handle()
	if again.Get() != sp.Get() || again.UseCount() != 2 {
		t.Fatal("SharedFromThis should work on combined allocations")
	}
	again.Reset()
	sp.Reset()
}

func TestSelfRef_NotOwnedDuringConstruction(t *testing.T) {
	var initErr error
	sp := MakeFunc(func(s *student) {
		s.name = "Marcus"
		_, initErr = s.SharedFromThis()
	})
	defer sp.Reset()

	if !errors.Is(initErr, ErrNotOwned) {
		t.Fatalf("SharedFromThis during construction = %v, want ErrNotOwned", initErr)
	}

	p, err := sp.Get().SharedFromThis()
	if err != nil {
		t.Fatalf("SharedFromThis after ownership: %v", err)
	}
	p.Reset()
}

func TestSelfRef_UnownedObject(t *testing.T) {
	s := &student{}
	if _, err := s.SharedFromThis(); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("err = %v, want ErrNotOwned", err)
	}
	if !s.WeakFromThis().Empty() {
		t.Fatal("WeakFromThis on unowned object should be empty")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustSharedFromThis on unowned object should panic")
		}
	}()
	s.MustSharedFromThis()
}

func TestSelfRef_BoundOnlyOnce(t *testing.T) {
	sp := New(&student{})
	// The self reference counts as one observer.
	if sp.WeakCount() != 1 {
		t.Fatalf("WeakCount = %d, want 1", sp.WeakCount())
	}

	clones := []Ptr[*student]{sp.Clone(), sp.Clone()}
	view := StaticCast(sp, func(s *student) *student { return s })
	if sp.WeakCount() != 1 {
		t.Fatalf("clones and casts must not rebind: WeakCount = %d", sp.WeakCount())
	}

	view.Reset()
	for i := range clones {
		clones[i].Reset()
	}
	sp.Reset()
}

func TestSelfRef_DoesNotKeepObjectAlive(t *testing.T) {
	rec := &recorder{}
	s := &student{}
	sp := NewWithOptions(s, nil, Options{Observer: rec})
	w := s.WeakFromThis()

	sp.Reset()
	if s.dropped != 1 {
		t.Fatal("payload should be torn down by the last owner")
	}
	if rec.count(EventReleased) != 0 {
		t.Fatal("metadata must survive while an external weak handle exists")
	}
	if _, err := s.SharedFromThis(); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("SharedFromThis after teardown = %v, want ErrNotOwned", err)
	}

	w.Reset()
	if rec.count(EventReleased) != 1 {
		t.Fatal("metadata should be released once the last weak handle is gone")
	}
}

func TestSelfRef_ReleasedWithCombinedLayout(t *testing.T) {
	rec := &recorder{}
	sp := MakeWithOptions(student{name: "x"}, Options{Observer: rec})
	sp.Reset()
	if rec.count(EventDestroyed) != 1 || rec.count(EventReleased) != 1 {
		t.Fatalf("events = %v, want destroyed and released", rec.types())
	}
}

type reader interface {
	Name() string
}

func (s *student) Name() string { return s.name }

func TestSelfRef_InterfaceOwner(t *testing.T) {
	// Owned through an interface type; the self reference still binds to
	// the concrete pointer it was declared with.
	sp := New[reader](&student{name: "Marcus"})
	s := sp.Get().(*student)

	again, err := s.SharedFromThis()
	if err != nil {
		t.Fatalf("SharedFromThis: %v", err)
	}
	if again.UseCount() != 2 {
		t.Fatalf("UseCount = %d, want 2", again.UseCount())
	}
	again.Reset()
	sp.Reset()
}
