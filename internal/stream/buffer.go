package stream

import (
	"sync"

	"github.com/logtap/logtap/internal/domain"
)

// ring is a fixed-size circular store of log entries. Oldest entries are
// overwritten once the capacity is reached, so the cap is never exceeded.
type ring struct {
	entries  []domain.LogEntry
	head     int // next write position
	count    int // current number of entries
	capacity int
}

func newRing(capacity int) ring {
	return ring{
		entries:  make([]domain.LogEntry, capacity),
		capacity: capacity,
	}
}

func (r *ring) push(entry domain.LogEntry) {
	r.entries[r.head] = entry
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// oldestFirst copies the contents out in insertion order
func (r *ring) oldestFirst() []domain.LogEntry {
	if r.count == 0 {
		return nil
	}
	result := make([]domain.LogEntry, r.count)
	start := 0
	if r.count == r.capacity {
		start = r.head // oldest entry is at head when full
	}
	for i := 0; i < r.count; i++ {
		result[i] = r.entries[(start+i)%r.capacity]
	}
	return result
}

// newestFirst copies the contents out newest-first
func (r *ring) newestFirst() []domain.LogEntry {
	if r.count == 0 {
		return nil
	}
	result := make([]domain.LogEntry, r.count)
	last := (r.head - 1 + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.entries[(last-i+r.capacity)%r.capacity]
	}
	return result
}

func (r *ring) clear() {
	r.head = 0
	r.count = 0
}

// Buffer is the bounded, ordered store of received log entries for one
// subscription. While paused, pushes are routed to an overflow ring so
// the visible buffer stays frozen; Resume moves the overflow contents
// into the visible buffer in arrival order. Entries pushed while paused
// are never lost except through normal cap eviction.
type Buffer struct {
	mu       sync.RWMutex
	visible  ring
	overflow ring
	paused   bool
}

// NewBuffer creates a buffer with the given hard cap on entry count
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Buffer{
		visible:  newRing(capacity),
		overflow: newRing(capacity),
	}
}

// Push adds an entry. It always succeeds: once the cap is reached the
// oldest entry is evicted.
func (b *Buffer) Push(entry domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		b.overflow.push(entry)
		return
	}
	b.visible.push(entry)
}

// SetPaused toggles buffering mode. Entering paused mode routes
// subsequent pushes to the overflow ring. Leaving paused mode flushes
// the overflow contents into the visible buffer in arrival order and
// empties the overflow ring. Setting the current mode again is a no-op.
func (b *Buffer) SetPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused == paused {
		return
	}
	b.paused = paused
	if paused {
		return
	}
	for _, entry := range b.overflow.oldestFirst() {
		b.visible.push(entry)
	}
	b.overflow.clear()
}

// Paused reports whether the buffer is in buffering mode
func (b *Buffer) Paused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paused
}

// Snapshot returns a copy of the visible entries, newest-first.
// Reads never block producers for longer than the copy and never
// mutate state.
func (b *Buffer) Snapshot() []domain.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible.newestFirst()
}

// Len returns the number of visible entries
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible.count
}

// Pending returns the number of entries held in the overflow ring
func (b *Buffer) Pending() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overflow.count
}

// Cap returns the hard cap on visible entries
func (b *Buffer) Cap() int {
	return b.visible.capacity
}

// Clear empties both the visible buffer and the overflow ring
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible.clear()
	b.overflow.clear()
}
