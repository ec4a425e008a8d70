// Package ctrl implements the control block shared by every handle that
// refers to one allocation.
//
// A block carries two counters. The strong count is the number of owning
// handles; the payload is live while it is positive. The weak count is the
// number of observing handles plus one share held collectively by the
// owners while the strong count is positive. That extra share is what makes
// metadata release race-free: the last owner destroys the payload first and
// only then gives up its share, so metadata can never be released while the
// payload teardown is still running.
package ctrl

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/refcount/errors"
)

// Layout records how payload and metadata were allocated.
type Layout uint8

const (
	// LayoutSeparate: payload allocated by the caller, metadata allocated
	// when the first handle wrapped it.
	LayoutSeparate Layout = iota
	// LayoutCombined: payload and metadata share one allocation.
	LayoutCombined
)

func (l Layout) String() string {
	switch l {
	case LayoutSeparate:
		return "separate"
	case LayoutCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// Ops is the type-erased teardown of one allocation.
type Ops interface {
	// Destroy tears the payload down. Called exactly once, when the strong
	// count reaches zero.
	Destroy()

	// Dealloc releases the metadata. Called exactly once, after Destroy,
	// when no handle of either kind refers to the block.
	Dealloc()
}

// Cell is a copy of the payload held on behalf of observers. The block
// expires every tracked cell right after Destroy so that observers do not
// keep the payload reachable.
type Cell interface {
	Expire()
}

var blockSeq atomic.Uint64

// Block is the control block of one allocation. The zero value is not
// usable; call Init or New.
type Block struct {
	strong    atomic.Int64
	weak      atomic.Int64
	ops       Ops
	id        uint64
	layout    Layout
	destroyed atomic.Bool
	released  atomic.Bool

	// ownersShare is true until the owners' weak share has been given back.
	ownersShare atomic.Bool

	mu      sync.Mutex
	cells   []Cell
	expired bool
}

// New allocates a block for a separately allocated payload.
// The returned block is owned by exactly one strong reference.
func New(ops Ops) *Block {
	b := &Block{}
	b.Init(ops, LayoutSeparate)
	return b
}

// Init prepares a block embedded in a larger allocation.
// Must be called once, before the block is shared.
func (b *Block) Init(ops Ops, layout Layout) {
	b.ops = ops
	b.layout = layout
	b.id = blockSeq.Add(1)
	b.strong.Store(1)
	b.weak.Store(1)
	b.ownersShare.Store(true)
}

// ID returns the block's process-unique sequence number.
func (b *Block) ID() uint64 { return b.id }

// Layout returns the allocation layout recorded at construction.
func (b *Block) Layout() Layout { return b.layout }

// IncStrong adds an owner. The caller must already hold a strong
// reference, so the count can never move up from zero here.
func (b *Block) IncStrong() {
	for {
		n := b.strong.Load()
		if n <= 0 {
			panic(errors.Resurrection(b.id))
		}
		if b.strong.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// DecStrong drops an owner. The caller that moves the count to zero runs
// Destroy and then releases the owners' share of the weak count.
// Returns true if this call destroyed the payload.
func (b *Block) DecStrong() bool {
	n := b.strong.Add(-1)
	if n > 0 {
		return false
	}
	if n < 0 {
		panic(errors.Underflow(b.id, "strong"))
	}

	defer b.dropOwnersShare()
	b.destroyed.Store(true)
	b.ops.Destroy()
	return true
}

func (b *Block) dropOwnersShare() {
	b.expireCells()
	b.DecWeak()
	b.ownersShare.Store(false)
}

// TryLockStrong adds an owner only if the payload is still live.
// This is the only path from an observer to an owner.
func (b *Block) TryLockStrong() bool {
	for {
		n := b.strong.Load()
		if n == 0 {
			return false
		}
		if b.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// IncWeak adds an observer. The caller must hold a reference of either
// kind, so the block cannot have been released.
func (b *Block) IncWeak() {
	for {
		n := b.weak.Load()
		if n <= 0 {
			panic(errors.New(errors.PhaseCount, errors.KindResurrection).
				Detail("weak increment on released block %d", b.id).
				Value(b.id).
				Build())
		}
		if b.weak.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// Track registers c to be expired when the payload is destroyed. It
// returns false if that has already happened; c is then left to the caller.
func (b *Block) Track(c Cell) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.expired {
		return false
	}
	b.cells = append(b.cells, c)
	return true
}

// Untrack forgets c. No-op once the cells have been expired.
func (b *Block) Untrack(c Cell) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, x := range b.cells {
		if x == c {
			last := len(b.cells) - 1
			b.cells[i] = b.cells[last]
			b.cells[last] = nil
			b.cells = b.cells[:last]
			return
		}
	}
}

// Tracked returns the number of cells waiting to be expired.
func (b *Block) Tracked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cells)
}

func (b *Block) expireCells() {
	b.mu.Lock()
	cells := b.cells
	b.cells = nil
	b.expired = true
	b.mu.Unlock()

	for _, c := range cells {
		c.Expire()
	}
}

// DecWeak drops an observer. The call that moves the count to zero runs
// Dealloc. Returns true if this call released the metadata.
func (b *Block) DecWeak() bool {
	n := b.weak.Add(-1)
	if n > 0 {
		return false
	}
	if n < 0 {
		panic(errors.Underflow(b.id, "weak"))
	}

	b.released.Store(true)
	b.ops.Dealloc()
	return true
}

// UseCount returns the number of owners. Stale as soon as it returns.
func (b *Block) UseCount() int64 {
	return b.strong.Load()
}

// WeakCount returns the number of observers, excluding the owners' share.
// Stale as soon as it returns.
func (b *Block) WeakCount() int64 {
	w := b.weak.Load()
	if b.ownersShare.Load() {
		w--
	}
	if w < 0 {
		return 0
	}
	return w
}

// Expired reports whether the payload has been destroyed.
func (b *Block) Expired() bool {
	return b.strong.Load() == 0
}

// Destroyed reports whether Destroy has run (or is running).
func (b *Block) Destroyed() bool {
	return b.destroyed.Load()
}

// Released reports whether Dealloc has run (or is running).
func (b *Block) Released() bool {
	return b.released.Load()
}
