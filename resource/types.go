package resource

import "github.com/wippyai/refcount/shared"

// Handle is an opaque reference to a resource in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventTaken
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// Event represents a resource lifecycle event.
type Event struct {
	Value   any
	Handle  Handle
	BlockID uint64
	TypeID  uint32
	Type    EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for resources.
// A backend holds one strong reference per live entry.
type Backend[T any] interface {
	// Create stores p, taking over its reference, and returns a handle.
	Create(typeID uint32, p shared.Ptr[T]) (Handle, error)

	// Get returns the stored handle as a borrowed view; counts are untouched.
	Get(handle Handle) (shared.Ptr[T], bool)

	// Drop removes an entry and hands its reference and type ID to the
	// caller, who must Reset the reference.
	Drop(handle Handle) (shared.Ptr[T], uint32, bool)

	// Close releases every reference held by the backend.
	Close() error
}

// Options configures a table.
type Options struct {
	// InitialCapacity presizes the entry slice.
	InitialCapacity int

	// Label names the table in log lines and errors.
	Label string
}

// DefaultOptions returns default table configuration.
func DefaultOptions() Options {
	return Options{
		InitialCapacity: 64,
		Label:           "resources",
	}
}
