package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	"github.com/logtap/logtap/internal/domain"
)

func newTestAggregator(t *testing.T) (*Aggregator, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	agg := NewAggregator(StatsConfig{
		ThroughputWindow: 10 * time.Second,
		ErrorWindow:      60 * time.Second,
		TopErrors:        3,
	}, mock)
	return agg, mock
}

func statsEntry(level domain.Level, message string) domain.LogEntry {
	return domain.LogEntry{Level: level, Message: message}
}

func TestAggregatorTotalToday(t *testing.T) {
	agg, _ := newTestAggregator(t)

	for i := 0; i < 7; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	}

	assert.Equal(t, int64(7), agg.Snapshot().TotalToday)
}

func TestAggregatorThroughput(t *testing.T) {
	agg, mock := newTestAggregator(t)

	// 20 events spread over 2 seconds inside a 10s window
	for i := 0; i < 10; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	}
	mock.Add(time.Second)
	for i := 0; i < 10; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	}

	assert.InDelta(t, 2.0, agg.Snapshot().EventsPerSecond, 0.001)
}

func TestAggregatorThroughputWindowExpires(t *testing.T) {
	agg, mock := newTestAggregator(t)

	for i := 0; i < 10; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	}
	mock.Add(11 * time.Second)

	assert.Zero(t, agg.Snapshot().EventsPerSecond)
	// TotalToday is unaffected by the trailing window
	assert.Equal(t, int64(10), agg.Snapshot().TotalToday)
}

func TestAggregatorErrorRate(t *testing.T) {
	agg, _ := newTestAggregator(t)

	for i := 0; i < 8; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelInfo, "ok"))
	}
	agg.OnLogEvent(statsEntry(domain.LevelError, "boom"))
	agg.OnLogEvent(statsEntry(domain.LevelCritical, "boom"))

	assert.InDelta(t, 0.2, agg.Snapshot().ErrorRate, 0.001)
}

func TestAggregatorErrorRateZeroWithoutEvents(t *testing.T) {
	agg, _ := newTestAggregator(t)
	assert.Zero(t, agg.Snapshot().ErrorRate)
}

func TestAggregatorTopErrors(t *testing.T) {
	agg, _ := newTestAggregator(t)

	for i := 0; i < 3; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelError, "timeout"))
	}
	for i := 0; i < 5; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelError, "disk full"))
	}
	agg.OnLogEvent(statsEntry(domain.LevelError, "oom"))
	agg.OnLogEvent(statsEntry(domain.LevelCritical, "panic"))
	// WARN does not count toward errors
	agg.OnLogEvent(statsEntry(domain.LevelWarn, "slow"))

	top := agg.Snapshot().TopErrors
	assert.Len(t, top, 3) // bounded by config
	assert.Equal(t, domain.ErrorCount{Message: "disk full", Count: 5}, top[0])
	assert.Equal(t, domain.ErrorCount{Message: "timeout", Count: 3}, top[1])
	// Equal counts rank alphabetically
	assert.Equal(t, domain.ErrorCount{Message: "oom", Count: 1}, top[2])
}

func TestAggregatorMidnightRollover(t *testing.T) {
	agg, mock := newTestAggregator(t)

	agg.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	assert.Equal(t, int64(1), agg.Snapshot().TotalToday)

	// Cross local midnight
	mock.Add(13 * time.Hour)
	assert.Zero(t, agg.Snapshot().TotalToday)

	agg.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	assert.Equal(t, int64(1), agg.Snapshot().TotalToday)
}

func TestAggregatorReset(t *testing.T) {
	agg, _ := newTestAggregator(t)

	agg.OnLogEvent(statsEntry(domain.LevelError, "boom"))
	agg.Reset()

	snap := agg.Snapshot()
	assert.Zero(t, snap.TotalToday)
	assert.Zero(t, snap.EventsPerSecond)
	assert.Zero(t, snap.ErrorRate)
	assert.Empty(t, snap.TopErrors)
}

func TestMergeSnapshots(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	cfg := StatsConfig{ThroughputWindow: 10 * time.Second, ErrorWindow: 60 * time.Second, TopErrors: 5}
	a := NewAggregator(cfg, mock)
	b := NewAggregator(cfg, mock)

	for i := 0; i < 10; i++ {
		a.OnLogEvent(statsEntry(domain.LevelInfo, "m"))
	}
	for i := 0; i < 5; i++ {
		b.OnLogEvent(statsEntry(domain.LevelError, "boom"))
	}
	b.OnLogEvent(statsEntry(domain.LevelError, "oom"))

	merged := MergeSnapshots([]*Aggregator{a, b})

	assert.Equal(t, int64(16), merged.TotalToday)
	assert.InDelta(t, 1.6, merged.EventsPerSecond, 0.001)
	assert.InDelta(t, 6.0/16.0, merged.ErrorRate, 0.001)
	assert.Equal(t, domain.ErrorCount{Message: "boom", Count: 5}, merged.TopErrors[0])
}

func TestMergeSnapshotsEmpty(t *testing.T) {
	assert.Equal(t, domain.AggregateStats{}, MergeSnapshots(nil))
}

func TestMergeSnapshotsSingle(t *testing.T) {
	agg, _ := newTestAggregator(t)
	for i := 0; i < 4; i++ {
		agg.OnLogEvent(statsEntry(domain.LevelInfo, fmt.Sprintf("m%d", i)))
	}

	merged := MergeSnapshots([]*Aggregator{agg})
	assert.Equal(t, agg.Snapshot(), merged)
}
