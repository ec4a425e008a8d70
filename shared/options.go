package shared

import (
	"github.com/wippyai/refcount/shared/internal/ctrl"
)

// Layout records how a payload and its control block were allocated.
type Layout = ctrl.Layout

const (
	LayoutSeparate = ctrl.LayoutSeparate
	LayoutCombined = ctrl.LayoutCombined
)

// EventType identifies a control block lifecycle transition.
type EventType uint8

const (
	// EventCreated fires once when a control block is created.
	EventCreated EventType = iota
	// EventDestroyed fires once when the strong count reaches zero,
	// after the payload teardown has run.
	EventDestroyed
	// EventReleased fires once when both counts have reached zero.
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event describes a lifecycle transition of one control block.
type Event struct {
	Label   string
	BlockID uint64
	Type    EventType
	Layout  Layout
}

// Observer receives lifecycle events of the blocks it was attached to.
// Events are delivered synchronously on the goroutine that caused the
// transition; observers must not block.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// Options configures a control block at construction.
type Options struct {
	// Observer, if set, receives the block's lifecycle events.
	Observer Observer

	// Label is attached to events and log lines.
	Label string
}

// DefaultOptions returns the configuration used by New and Make.
func DefaultOptions() Options {
	return Options{}
}
