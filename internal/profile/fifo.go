package profile

import (
	"fmt"

	errs "github.com/1ureka/rtno/internal/errors"
)

// OverflowPolicy defines what Push does when the FIFO is full.
type OverflowPolicy int

const (
	// DropOldest evicts the head item to make room for the new one.
	DropOldest OverflowPolicy = iota
	// DropNewest discards the item being pushed.
	DropNewest
)

// String returns the config name of the policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy parses the config name of a policy. An empty string
// selects DropOldest.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "drop-oldest":
		return DropOldest, nil
	case "drop-newest":
		return DropNewest, nil
	default:
		return DropOldest, fmt.Errorf("%w: overflow policy %q", errs.ErrInvalidConfig, s)
	}
}

// Fifo is a bounded ring of byte items. Every slot is allocated once with
// room for maxItem bytes, so Push and Pop never allocate.
//
// Fifo does no locking; the adapter guard serializes access.
type Fifo struct {
	slots  [][]byte
	sizes  []int
	head   int
	count  int
	policy OverflowPolicy
	drops  uint64
}

// NewFifo creates a FIFO of capacity items of at most maxItem bytes.
func NewFifo(capacity, maxItem int, policy OverflowPolicy) *Fifo {
	if capacity <= 0 {
		capacity = 1
	}
	if maxItem <= 0 {
		maxItem = 1
	}
	f := &Fifo{
		slots:  make([][]byte, capacity),
		sizes:  make([]int, capacity),
		policy: policy,
	}
	for i := range f.slots {
		f.slots[i] = make([]byte, maxItem)
	}
	return f
}

// Push appends a copy of item. When the FIFO is full the overflow policy
// decides which item is lost; either way a drop is counted and Push returns
// nil. Items longer than the slot size are rejected.
func (f *Fifo) Push(item []byte) error {
	if len(item) > len(f.slots[0]) {
		return errs.WrapCapacity(
			fmt.Errorf("%w: %d > %d", errs.ErrItemTooLarge, len(item), len(f.slots[0])),
			"Fifo", "Push")
	}

	if f.count == len(f.slots) {
		f.drops++
		if f.policy == DropNewest {
			return nil
		}
		f.head = (f.head + 1) % len(f.slots)
		f.count--
	}

	tail := (f.head + f.count) % len(f.slots)
	f.sizes[tail] = copy(f.slots[tail], item)
	f.count++
	return nil
}

// HasNext reports whether at least one item is queued.
func (f *Fifo) HasNext() bool { return f.count > 0 }

// NextSize returns the length of the head item, or 0 when empty.
func (f *Fifo) NextSize() int {
	if f.count == 0 {
		return 0
	}
	return f.sizes[f.head]
}

// Pop copies the head item into dst and removes it. If dst is shorter than
// the item, nothing is removed and ErrShortBuffer is returned.
func (f *Fifo) Pop(dst []byte) (int, error) {
	if f.count == 0 {
		return 0, nil
	}
	n := f.sizes[f.head]
	if len(dst) < n {
		return 0, errs.WrapCapacity(errs.ErrShortBuffer, "Fifo", "Pop")
	}
	copy(dst, f.slots[f.head][:n])
	f.head = (f.head + 1) % len(f.slots)
	f.count--
	return n, nil
}

// Size returns the number of queued items.
func (f *Fifo) Size() int { return f.count }

// Capacity returns the number of slots.
func (f *Fifo) Capacity() int { return len(f.slots) }

// MaxItemSize returns the slot size in bytes.
func (f *Fifo) MaxItemSize() int { return len(f.slots[0]) }

// Policy returns the overflow policy.
func (f *Fifo) Policy() OverflowPolicy { return f.policy }

// Drops returns how many items were lost to overflow.
func (f *Fifo) Drops() uint64 { return f.drops }

// Clear removes every queued item.
func (f *Fifo) Clear() {
	f.head = 0
	f.count = 0
}
