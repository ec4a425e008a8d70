package playground

import (
	"fmt"

	"github.com/wippyai/refcount/shared"
)

// Identifier is the read-only view of an Object handed out by cast.
type Identifier interface {
	Identity() int
}

// Object is the payload every playground handle points at.
type Object struct {
	shared.SelfRef[*Object]
	onDrop func(id int)
	ID     int
}

func (o *Object) Identity() int { return o.ID }

func (o *Object) Drop() {
	if o.onDrop != nil {
		o.onDrop(o.ID)
	}
}

type kind uint8

const (
	kindShared kind = iota
	kindWeak
	kindField
	kindView
)

func (k kind) String() string {
	switch k {
	case kindShared:
		return "shared"
	case kindWeak:
		return "weak"
	case kindField:
		return "field"
	case kindView:
		return "view"
	default:
		return "unknown"
	}
}

// slot holds one named handle. Exactly one field matching kind is used.
type slot struct {
	strong shared.Ptr[*Object]
	weak   shared.Weak[*Object]
	field  shared.Ptr[*int]
	view   shared.Ptr[Identifier]
	kind   kind
}

func (s *slot) clone() *slot {
	c := &slot{kind: s.kind}
	switch s.kind {
	case kindShared:
		c.strong = s.strong.Clone()
	case kindWeak:
		c.weak = s.weak.Clone()
	case kindField:
		c.field = s.field.Clone()
	case kindView:
		c.view = s.view.Clone()
	}
	return c
}

func (s *slot) move() *slot {
	m := &slot{kind: s.kind}
	switch s.kind {
	case kindShared:
		m.strong = s.strong.Move()
	case kindWeak:
		m.weak = s.weak.Move()
	case kindField:
		m.field = s.field.Move()
	case kindView:
		m.view = s.view.Move()
	}
	return m
}

func (s *slot) swap(o *slot) {
	switch s.kind {
	case kindShared:
		s.strong.Swap(&o.strong)
	case kindWeak:
		s.weak.Swap(&o.weak)
	case kindField:
		s.field.Swap(&o.field)
	case kindView:
		s.view.Swap(&o.view)
	}
}

func (s *slot) reset() {
	s.strong.Reset()
	s.weak.Reset()
	s.field.Reset()
	s.view.Reset()
}

func (s *slot) describe() string {
	switch s.kind {
	case kindShared:
		if s.strong.Empty() {
			return "shared empty"
		}
		return fmt.Sprintf("shared obj=%d use=%d weak=%d",
			s.strong.Get().ID, s.strong.UseCount(), s.strong.WeakCount())
	case kindWeak:
		if s.weak.Empty() {
			return "weak empty"
		}
		use, weak := s.weak.UseCount(), s.weak.WeakCount()
		p := s.weak.Lock()
		if p.Empty() {
			return fmt.Sprintf("weak expired weak=%d", weak)
		}
		defer p.Reset()
		return fmt.Sprintf("weak obj=%d use=%d weak=%d", p.Get().ID, use, weak)
	case kindField:
		if s.field.Empty() {
			return "field empty"
		}
		return fmt.Sprintf("field value=%d use=%d", *s.field.Get(), s.field.UseCount())
	case kindView:
		if s.view.Empty() {
			return "view empty"
		}
		return fmt.Sprintf("view obj=%d use=%d", s.view.Get().Identity(), s.view.UseCount())
	}
	return "unknown"
}
