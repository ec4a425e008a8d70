package shared

import (
	"fmt"
	"testing"

	rcerrors "github.com/wippyai/refcount/errors"
)

type animal interface {
	Speak() string
}

type dog struct {
	age int
}

func (d *dog) Speak() string { return fmt.Sprintf("Bark! I'm %d Year Old!", d.age) }

type cat struct {
	age *int
}

func (c *cat) Speak() string { return fmt.Sprintf("Meow! I'm %d Year Old!", *c.age) }

func TestUnique_Zoo(t *testing.T) {
	age := 3
	c := MakeUnique(cat{age: &age})
	d := MakeUnique(dog{age: age})

	zoo := []Unique[animal]{
		ConvertUnique(&c, func(c *cat) animal { return c }),
		ConvertUnique(&d, func(d *dog) animal { return d }),
	}
	if !c.Empty() || !d.Empty() {
		t.Fatal("conversion should consume the source handles")
	}

	speak := func() []string {
		var out []string
		for _, a := range zoo {
			out = append(out, a.Deref().Speak())
		}
		return out
	}

	got := speak()
	if got[0] != "Meow! I'm 3 Year Old!" || got[1] != "Bark! I'm 3 Year Old!" {
		t.Fatalf("first round = %v", got)
	}
	age++
	got = speak()
	if got[0] != "Meow! I'm 4 Year Old!" || got[1] != "Bark! I'm 3 Year Old!" {
		t.Fatalf("second round = %v", got)
	}

	for i := range zoo {
		zoo[i].Reset()
	}
}

func TestUnique_ResetTearsDownOnce(t *testing.T) {
	w := &widget{}
	u := NewUnique(w)
	if u.Empty() || u.Get() != w {
		t.Fatal("NewUnique should own the value")
	}

	u.Reset()
	u.Reset()
	if w.dropped != 1 {
		t.Fatalf("Drop called %d times, want 1", w.dropped)
	}
	if !u.Empty() {
		t.Fatal("Reset should leave the handle empty")
	}
}

func TestUnique_NilIsEmpty(t *testing.T) {
	u := NewUnique[*widget](nil)
	if !u.Empty() {
		t.Fatal("nil value should give an empty handle")
	}
	expectPanicKind(t, rcerrors.KindEmptyHandle, func() { u.Deref() })
	if !u.Share().Empty() {
		t.Fatal("sharing an empty handle should give an empty Ptr")
	}
}

func TestUnique_Release(t *testing.T) {
	w := &widget{}
	u := NewUnique(w)

	if got := u.Release(); got != w {
		t.Fatal("Release should return the owned value")
	}
	u.Reset()
	if w.dropped != 0 {
		t.Fatal("released value must not be torn down")
	}
}

func TestUnique_MoveAndSwap(t *testing.T) {
	a, b := &widget{id: 1}, &widget{id: 2}
	ua := NewUnique(a)
	ub := NewUnique(b)

	moved := ua.Move()
	if !ua.Empty() || moved.Get() != a {
		t.Fatal("Move should transfer ownership")
	}

	moved.Swap(&ub)
	if moved.Get() != b || ub.Get() != a {
		t.Fatal("Swap should exchange values")
	}

	moved.MoveFrom(&ub)
	if b.dropped != 1 || a.dropped != 0 {
		t.Fatal("MoveFrom should tear down only the replaced value")
	}
	if !ub.Empty() || moved.Get() != a {
		t.Fatal("MoveFrom should leave the source empty")
	}

	moved.MoveFrom(&moved)
	if moved.Get() != a {
		t.Fatal("moving into itself is a no-op")
	}
	moved.Reset()
	if a.dropped != 1 {
		t.Fatalf("Drop called %d times, want 1", a.dropped)
	}
}

func TestUnique_ShareKeepsDeleter(t *testing.T) {
	var deleted []int
	u := NewUniqueWithDeleter(&widget{id: 7}, func(w *widget) {
		deleted = append(deleted, w.id)
	})

	rec := &recorder{}
	p := u.ShareWithOptions(Options{Observer: rec, Label: "shared"})
	if !u.Empty() {
		t.Fatal("Share should consume the unique handle")
	}
	if p.UseCount() != 1 || p.Layout() != LayoutSeparate {
		t.Fatalf("shared handle: use=%d layout=%s", p.UseCount(), p.Layout())
	}

	q := p.Clone()
	p.Reset()
	if len(deleted) != 0 {
		t.Fatal("payload destroyed while an owner remains")
	}
	q.Reset()
	if len(deleted) != 1 || deleted[0] != 7 {
		t.Fatalf("deleter calls = %v, want [7]", deleted)
	}
	if rec.count(EventDestroyed) != 1 {
		t.Fatal("shared block should report its destruction")
	}
}

func TestUnique_ShareBindsSelf(t *testing.T) {
	u := MakeUniqueFunc(func(s *student) { s.name = "x" })
	if _, err := u.Get().SharedFromThis(); err == nil {
		t.Fatal("uniquely owned object has no shared owner yet")
	}

	p := u.Share()
	again := p.Get().MustSharedFromThis()
	if !SameOwner(p, again) {
		t.Fatal("self reference should bind when the object becomes shared")
	}
	again.Reset()
	p.Reset()
}

func TestUnique_ConvertRunsOriginalDeleter(t *testing.T) {
	c := &closer{}
	u := NewUnique(c)
	r := ConvertUnique(&u, func(c *closer) any { return c })

	r.Reset()
	if c.closed != 1 {
		t.Fatalf("Close called %d times, want 1", c.closed)
	}

	var empty Unique[*closer]
	called := false
	out := ConvertUnique(&empty, func(*closer) any { called = true; return nil })
	if !out.Empty() || called {
		t.Fatal("converting an empty handle should not call conv")
	}
}

func TestMakeUniqueSlice(t *testing.T) {
	u := MakeUniqueSlice[int](5)
	s := u.Deref()
	if len(s) != 5 {
		t.Fatalf("len = %d, want 5", len(s))
	}
	for i, v := range s {
		if v != 0 {
			t.Fatalf("element %d = %d, want zero", i, v)
		}
	}
	u.Reset()
	if !u.Empty() {
		t.Fatal("Reset should empty the handle")
	}
}
