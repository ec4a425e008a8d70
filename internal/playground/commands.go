package playground

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/resource"
	"github.com/wippyai/refcount/shared"
)

type command struct {
	run  func(s *Session, args []string) error
	help string
	args []string
}

func (c command) usage(name string) string {
	if len(c.args) == 0 {
		return name
	}
	return name + " " + strings.Join(c.args, " ")
}

var commands = map[string]command{
	"make":    {args: []string{"NAME", "ID"}, help: "allocate object and block together", run: cmdMake},
	"new":     {args: []string{"NAME", "ID"}, help: "allocate object, then a separate block", run: cmdNew},
	"copy":    {args: []string{"DST", "SRC"}, help: "copy a handle (adds an owner or observer)", run: cmdCopy},
	"move":    {args: []string{"DST", "SRC"}, help: "move a handle, leaving SRC empty", run: cmdMove},
	"alias":   {args: []string{"DST", "SRC"}, help: "handle to SRC's id field sharing its ownership", run: cmdAlias},
	"weak":    {args: []string{"DST", "SRC"}, help: "weak handle observing SRC", run: cmdWeak},
	"lock":    {args: []string{"DST", "WEAK"}, help: "shared handle from a weak one, empty if expired", run: cmdLock},
	"reset":   {args: []string{"NAME"}, help: "release a handle", run: cmdReset},
	"swap":    {args: []string{"A", "B"}, help: "exchange two handles of the same kind", run: cmdSwap},
	"self":    {args: []string{"DST", "SRC"}, help: "shared handle obtained from inside the object", run: cmdSelf},
	"cast":    {args: []string{"DST", "SRC"}, help: "shared to read-only view, or view back to shared", run: cmdCast},
	"count":   {args: []string{"NAME"}, help: "show counts for a handle", run: cmdCount},
	"list":    {help: "show every handle", run: cmdList},
	"put":     {args: []string{"SRC"}, help: "store a copy of SRC in the handle table", run: cmdPut},
	"borrow":  {args: []string{"DST", "HANDLE"}, help: "shared handle to a table entry", run: cmdBorrow},
	"drop":    {args: []string{"HANDLE"}, help: "release the table's reference to an entry", run: cmdDrop},
	"table":   {help: "show table entries", run: cmdTable},
	"history": {help: "show recorded lifecycle events", run: cmdHistory},
}

// Help returns a usage summary for every command.
func Help() string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		c := commands[n]
		fmt.Fprintf(&b, "  %-16s %s\n", c.usage(n), c.help)
	}
	return strings.TrimRight(b.String(), "\n")
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(errors.PhaseConstruct, errors.KindInvalidInput).
			GoType("*playground.Object").
			Cause(err).
			Detail("object id %q is not a number", s).
			Build()
	}
	return id, nil
}

func cmdMake(s *Session, args []string) error {
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	p := shared.MakeFuncWithOptions(func(o *Object) {
		o.ID = id
		o.onDrop = s.objectDropped
	}, s.options(id))
	s.bind(args[0], &slot{kind: kindShared, strong: p})
	s.printf("%s = obj %d (%s)", args[0], id, p.Layout())
	return nil
}

func cmdNew(s *Session, args []string) error {
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	p := shared.NewWithOptions(&Object{ID: id, onDrop: s.objectDropped}, nil, s.options(id))
	s.bind(args[0], &slot{kind: kindShared, strong: p})
	s.printf("%s = obj %d (%s)", args[0], id, p.Layout())
	return nil
}

func cmdCopy(s *Session, args []string) error {
	src, err := s.lookup(args[1])
	if err != nil {
		return err
	}
	c := src.clone()
	s.bind(args[0], c)
	s.printf("%s: %s", args[0], c.describe())
	return nil
}

func cmdMove(s *Session, args []string) error {
	src, err := s.lookup(args[1])
	if err != nil {
		return err
	}
	m := src.move()
	s.bind(args[0], m)
	s.printf("%s: %s", args[0], m.describe())
	return nil
}

func cmdAlias(s *Session, args []string) error {
	src, err := s.lookupKind(args[1], kindShared)
	if err != nil {
		return err
	}
	a := &slot{kind: kindField}
	if !src.strong.Empty() {
		a.field = shared.Alias(src.strong, &src.strong.Get().ID)
	}
	s.bind(args[0], a)
	s.printf("%s: %s", args[0], a.describe())
	return nil
}

func cmdWeak(s *Session, args []string) error {
	src, err := s.lookupKind(args[1], kindShared, kindWeak)
	if err != nil {
		return err
	}
	w := &slot{kind: kindWeak}
	if src.kind == kindShared {
		w.weak = src.strong.Weak()
	} else {
		w.weak = src.weak.Clone()
	}
	s.bind(args[0], w)
	s.printf("%s: %s", args[0], w.describe())
	return nil
}

func cmdLock(s *Session, args []string) error {
	src, err := s.lookupKind(args[1], kindWeak)
	if err != nil {
		return err
	}
	l := &slot{kind: kindShared, strong: src.weak.Lock()}
	s.bind(args[0], l)
	if l.strong.Empty() {
		s.printf("%s: lock failed, %s expired", args[0], args[1])
		return nil
	}
	s.printf("%s: %s", args[0], l.describe())
	return nil
}

func cmdReset(s *Session, args []string) error {
	sl, err := s.lookup(args[0])
	if err != nil {
		return err
	}
	sl.reset()
	s.printf("%s: %s", args[0], sl.describe())
	return nil
}

func cmdSwap(s *Session, args []string) error {
	a, err := s.lookup(args[0])
	if err != nil {
		return err
	}
	b, err := s.lookupKind(args[1], a.kind)
	if err != nil {
		return err
	}
	a.swap(b)
	s.printf("%s: %s", args[0], a.describe())
	s.printf("%s: %s", args[1], b.describe())
	return nil
}

func cmdSelf(s *Session, args []string) error {
	src, err := s.lookupKind(args[1], kindShared)
	if err != nil {
		return err
	}
	if src.strong.Empty() {
		return errors.EmptyHandle("shared.Ptr[*playground.Object]")
	}
	p, err := src.strong.Get().SharedFromThis()
	if err != nil {
		return err
	}
	sl := &slot{kind: kindShared, strong: p}
	s.bind(args[0], sl)
	s.printf("%s: %s", args[0], sl.describe())
	return nil
}

func cmdCast(s *Session, args []string) error {
	src, err := s.lookupKind(args[1], kindShared, kindView)
	if err != nil {
		return err
	}

	var sl *slot
	if src.kind == kindShared {
		sl = &slot{kind: kindView}
		sl.view = shared.StaticCast(src.strong, func(o *Object) Identifier { return o })
	} else {
		sl = &slot{kind: kindShared}
		sl.strong = shared.DynamicCast[*Object](src.view)
		if sl.strong.Empty() && !src.view.Empty() {
			return errors.TypeMismatch(errors.PhaseCast, "playground.Identifier", "*playground.Object")
		}
	}
	s.bind(args[0], sl)
	s.printf("%s: %s", args[0], sl.describe())
	return nil
}

func cmdCount(s *Session, args []string) error {
	sl, err := s.lookup(args[0])
	if err != nil {
		return err
	}
	s.printf("%s: %s", args[0], sl.describe())
	return nil
}

func cmdList(s *Session, _ []string) error {
	names := s.Names()
	if len(names) == 0 {
		s.printf("(no handles)")
		return nil
	}
	for _, n := range names {
		s.printf("%s: %s", n, s.slots[n].describe())
	}
	return nil
}

func cmdHistory(s *Session, _ []string) error {
	entries := s.History()
	if len(entries) == 0 {
		s.printf("(no events)")
		return nil
	}
	for _, e := range entries {
		s.printf("%s", e)
	}
	return nil
}

func parseHandle(s string) (resource.Handle, error) {
	h, err := strconv.ParseUint(s, 10, 32)
	if err != nil || h == 0 {
		return 0, errors.InvalidInput(errors.PhaseTable, fmt.Sprintf("table handle %q is not a positive number", s))
	}
	return resource.Handle(h), nil
}

func cmdPut(s *Session, args []string) error {
	src, err := s.lookupKind(args[0], kindShared)
	if err != nil {
		return err
	}
	if src.strong.Empty() {
		return errors.EmptyHandle("shared.Ptr[*playground.Object]")
	}
	id := src.strong.Get().ID
	c := src.strong.Clone()
	h := s.table.Insert(objectType, &c)
	if h == 0 {
		return errors.Closed(errors.PhaseTable, "playground table")
	}
	s.printf("handle %d -> obj %d", h, id)
	return nil
}

func cmdBorrow(s *Session, args []string) error {
	h, err := parseHandle(args[1])
	if err != nil {
		return err
	}
	p, ok := s.table.BorrowTyped(h, objectType)
	if !ok {
		return errors.NotFound(errors.PhaseTable, "table handle", args[1])
	}
	sl := &slot{kind: kindShared, strong: p}
	s.bind(args[0], sl)
	s.printf("%s: %s", args[0], sl.describe())
	return nil
}

func cmdDrop(s *Session, args []string) error {
	h, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	if !s.table.Remove(h) {
		return errors.NotFound(errors.PhaseTable, "table handle", args[0])
	}
	s.printf("handle %d dropped", h)
	return nil
}

func cmdTable(s *Session, _ []string) error {
	if s.table.Len() == 0 {
		s.printf("(empty table)")
		return nil
	}
	s.table.Each(func(h resource.Handle, o *Object) bool {
		s.printf("handle %d -> obj %d", h, o.ID)
		return true
	})
	return nil
}
