package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtap/logtap/internal/domain"
)

func entry(id string) domain.LogEntry {
	return domain.LogEntry{
		ID:        id,
		Timestamp: time.Now(),
		Level:     domain.LevelInfo,
		Message:   "message " + id,
	}
}

func ids(entries []domain.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestBufferPushAndSnapshot(t *testing.T) {
	b := NewBuffer(10)

	b.Push(entry("a"))
	b.Push(entry("b"))
	b.Push(entry("c"))

	// Snapshot is newest-first
	assert.Equal(t, []string{"c", "b", "a"}, ids(b.Snapshot()))
	assert.Equal(t, 3, b.Len())
}

func TestBufferEvictsOldestAtCap(t *testing.T) {
	b := NewBuffer(3)

	b.Push(entry("a"))
	b.Push(entry("b"))
	b.Push(entry("c"))
	b.Push(entry("d"))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"d", "c", "b"}, ids(b.Snapshot()))
}

func TestBufferNeverExceedsCap(t *testing.T) {
	b := NewBuffer(100)

	for i := 0; i < 1000; i++ {
		b.Push(entry(fmt.Sprintf("e%d", i)))
		require.LessOrEqual(t, b.Len(), 100)
	}
	assert.Equal(t, 100, b.Len())
	assert.Equal(t, "e999", b.Snapshot()[0].ID)
}

func TestBufferPauseFreezesVisible(t *testing.T) {
	b := NewBuffer(10)
	b.Push(entry("a"))

	b.SetPaused(true)
	assert.True(t, b.Paused())

	b.Push(entry("b"))
	b.Push(entry("c"))

	// Visible buffer unchanged while paused
	assert.Equal(t, []string{"a"}, ids(b.Snapshot()))
	assert.Equal(t, 2, b.Pending())
}

func TestBufferResumeFlushesInArrivalOrder(t *testing.T) {
	b := NewBuffer(10)
	b.Push(entry("a"))

	b.SetPaused(true)
	b.Push(entry("b"))
	b.Push(entry("c"))
	b.SetPaused(false)

	assert.False(t, b.Paused())
	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, []string{"c", "b", "a"}, ids(b.Snapshot()))
}

func TestBufferPauseResumeNoLossWithinCap(t *testing.T) {
	b := NewBuffer(100)

	b.SetPaused(true)
	for i := 0; i < 50; i++ {
		b.Push(entry(fmt.Sprintf("p%d", i)))
	}
	b.SetPaused(false)

	assert.Equal(t, 50, b.Len())
}

func TestBufferPauseIdempotent(t *testing.T) {
	b := NewBuffer(10)

	b.SetPaused(true)
	b.Push(entry("a"))
	b.SetPaused(true) // no-op, overflow must survive
	assert.Equal(t, 1, b.Pending())

	b.SetPaused(false)
	b.SetPaused(false) // no-op
	assert.Equal(t, []string{"a"}, ids(b.Snapshot()))
}

func TestBufferOverflowEvictionWhilePaused(t *testing.T) {
	b := NewBuffer(3)

	b.SetPaused(true)
	for i := 0; i < 5; i++ {
		b.Push(entry(fmt.Sprintf("o%d", i)))
	}
	// Overflow is bounded by the same cap
	assert.Equal(t, 3, b.Pending())

	b.SetPaused(false)
	assert.Equal(t, []string{"o4", "o3", "o2"}, ids(b.Snapshot()))
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(10)
	b.Push(entry("a"))
	b.SetPaused(true)
	b.Push(entry("b"))

	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Pending())
	assert.Empty(t, b.Snapshot())
}

func TestBufferSnapshotIsACopy(t *testing.T) {
	b := NewBuffer(10)
	b.Push(entry("a"))

	snap := b.Snapshot()
	snap[0].ID = "mutated"

	assert.Equal(t, "a", b.Snapshot()[0].ID)
}
