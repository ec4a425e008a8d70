package playground

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/resource"
	"github.com/wippyai/refcount/shared"
)

// objectType is the resource type ID of playground objects.
const objectType uint32 = 1

// Config configures a Session.
type Config struct {
	// Logger receives a debug line per executed command. nil disables logging.
	Logger *zap.Logger

	// HistoryLimit bounds the lifecycle history. Older entries are dropped.
	HistoryLimit int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{HistoryLimit: 64}
}

// Session interprets playground commands over a set of named handles.
// A Session is not safe for concurrent use.
type Session struct {
	logger  *zap.Logger
	slots   map[string]*slot
	table   *resource.Table[*Object]
	history *queue.Queue
	pending []string
	limit   int
}

// NewSession creates an empty session.
func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultConfig().HistoryLimit
	}
	s := &Session{
		logger:  cfg.Logger,
		slots:   make(map[string]*slot),
		history: queue.New(),
		limit:   cfg.HistoryLimit,
		table: resource.NewTableWithOptions[*Object](resource.Options{
			InitialCapacity: 16,
			Label:           "playground",
		}),
	}
	s.table.Subscribe(s)
	return s
}

// Exec runs a single command line and returns what it printed, including
// teardown notices for objects it destroyed. Blank lines and lines
// starting with # are ignored.
func (s *Session) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil
	}

	name, args := fields[0], fields[1:]
	if name == "help" {
		return Help(), nil
	}
	cmd, ok := commands[name]
	if !ok {
		return "", errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("unknown command %q (try help)", name))
	}
	if len(args) != len(cmd.args) {
		return "", errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("usage: %s", cmd.usage(name)))
	}

	s.logger.Debug("exec", zap.String("cmd", name), zap.Strings("args", args))

	s.pending = s.pending[:0]
	err := cmd.run(s, args)
	out := strings.Join(s.pending, "\n")
	s.pending = s.pending[:0]
	return out, err
}

// Run executes a script, writing each command's output to w. It stops at
// the first failing line.
func (s *Session) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		out, err := s.Exec(scanner.Text())
		if out != "" {
			fmt.Fprintln(w, out)
		}
		if err != nil {
			return errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err,
				fmt.Sprintf("script line %d", lineNo))
		}
	}
	return scanner.Err()
}

// History returns the recorded lifecycle events, oldest first.
func (s *Session) History() []string {
	out := make([]string, s.history.Length())
	for i := range out {
		out[i] = s.history.Get(i).(string)
	}
	return out
}

// Names returns the bound handle names in sorted order.
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.slots))
	for n := range s.slots {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close releases every handle the session holds, including table entries.
func (s *Session) Close() {
	for _, n := range s.Names() {
		s.slots[n].reset()
		delete(s.slots, n)
	}
	if err := s.table.Close(); err != nil {
		s.logger.Warn("table close failed", zap.Error(err))
	}
	s.pending = s.pending[:0]
}

// OnHandleEvent records block transitions in the history.
func (s *Session) OnHandleEvent(e shared.Event) {
	s.record(fmt.Sprintf("block %d %s %s (%s)", e.BlockID, e.Label, e.Type, e.Layout))
}

// OnResourceEvent records table transitions in the history.
func (s *Session) OnResourceEvent(e resource.Event) {
	s.record(fmt.Sprintf("table handle %d %s (block %d)", e.Handle, e.Type, e.BlockID))
}

func (s *Session) record(entry string) {
	for s.history.Length() >= s.limit {
		s.history.Remove()
	}
	s.history.Add(entry)
}

func (s *Session) printf(format string, args ...any) {
	s.pending = append(s.pending, fmt.Sprintf(format, args...))
}

func (s *Session) objectDropped(id int) {
	s.printf("obj %d destroyed", id)
}

func (s *Session) options(id int) shared.Options {
	return shared.Options{
		Label:    fmt.Sprintf("obj=%d", id),
		Observer: s,
	}
}

// bind stores sl under name, releasing whatever was bound there before.
func (s *Session) bind(name string, sl *slot) {
	if old, ok := s.slots[name]; ok {
		old.reset()
	}
	s.slots[name] = sl
}

func (s *Session) lookup(name string) (*slot, error) {
	sl, ok := s.slots[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "handle", name)
	}
	return sl, nil
}

func (s *Session) lookupKind(name string, kinds ...kind) (*slot, error) {
	sl, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if sl.kind == k {
			return sl, nil
		}
	}
	want := make([]string, len(kinds))
	for i, k := range kinds {
		want[i] = k.String()
	}
	e := errors.TypeMismatch(errors.PhaseRuntime, sl.kind.String(), strings.Join(want, " or "))
	e.Label = name
	return nil, e
}
