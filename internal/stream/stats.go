package stream

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/logtap/logtap/internal/domain"
)

// StatsConfig holds tunables for the stats aggregator
type StatsConfig struct {
	ThroughputWindow time.Duration // trailing window for events/sec
	ErrorWindow      time.Duration // trailing window for the error rate
	TopErrors        int           // size of the frequent-error ranking
}

// withDefaults fills unset fields
func (c StatsConfig) withDefaults() StatsConfig {
	if c.ThroughputWindow <= 0 {
		c.ThroughputWindow = 10 * time.Second
	}
	if c.ErrorWindow <= 0 {
		c.ErrorWindow = 60 * time.Second
	}
	if c.TopErrors <= 0 {
		c.TopErrors = 10
	}
	return c
}

// secondBucket accumulates per-second counts. Buckets are keyed by unix
// second and lazily reset when reused for a new second.
type secondBucket struct {
	sec    int64
	total  int
	errors int
}

// Aggregator maintains the rolling counters behind AggregateStats.
// OnLogEvent is amortized O(1) per event; Snapshot walks the bucket
// window and the distinct-error map.
type Aggregator struct {
	clk clock.Clock

	mu          sync.Mutex
	cfg         StatsConfig
	day         time.Time // local midnight anchoring TotalToday
	totalToday  int64
	buckets     []secondBucket
	errorCounts map[string]int
}

// NewAggregator creates a stats aggregator driven by the given clock
func NewAggregator(cfg StatsConfig, clk clock.Clock) *Aggregator {
	cfg = cfg.withDefaults()
	if clk == nil {
		clk = clock.New()
	}
	// One bucket per second across the widest window, plus one so the
	// current partial second never collides with the window tail.
	size := int(cfg.ErrorWindow/time.Second) + 1
	if tw := int(cfg.ThroughputWindow/time.Second) + 1; tw > size {
		size = tw
	}
	now := clk.Now()
	return &Aggregator{
		clk:         clk,
		cfg:         cfg,
		day:         midnight(now),
		buckets:     make([]secondBucket, size),
		errorCounts: make(map[string]int),
	}
}

// OnLogEvent updates the counters for a received entry
func (a *Aggregator) OnLogEvent(entry domain.LogEntry) {
	now := a.clk.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if day := midnight(now); !day.Equal(a.day) {
		a.day = day
		a.totalToday = 0
	}
	a.totalToday++

	sec := now.Unix()
	b := &a.buckets[int(sec%int64(len(a.buckets)))]
	if b.sec != sec {
		b.sec = sec
		b.total = 0
		b.errors = 0
	}
	b.total++
	if entry.Level.IsError() {
		b.errors++
		a.errorCounts[entry.Message]++
	}
}

// Snapshot returns an immutable copy of the current stats. No read
// observes a half-updated state.
func (a *Aggregator) Snapshot() domain.AggregateStats {
	now := a.clk.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	total := a.totalToday
	if !midnight(now).Equal(a.day) {
		total = 0
	}

	return domain.AggregateStats{
		TotalToday:      total,
		EventsPerSecond: a.windowRate(now, a.cfg.ThroughputWindow),
		ErrorRate:       a.windowErrorRate(now, a.cfg.ErrorWindow),
		TopErrors:       a.topErrors(),
	}
}

// Reset clears all counters, including the frequent-error ranking
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalToday = 0
	a.day = midnight(a.clk.Now())
	for i := range a.buckets {
		a.buckets[i] = secondBucket{}
	}
	a.errorCounts = make(map[string]int)
}

func (a *Aggregator) windowRate(now time.Time, window time.Duration) float64 {
	total, _ := a.windowCounts(now, window)
	return float64(total) / window.Seconds()
}

func (a *Aggregator) windowErrorRate(now time.Time, window time.Duration) float64 {
	total, errs := a.windowCounts(now, window)
	if total == 0 {
		return 0
	}
	return float64(errs) / float64(total)
}

// windowCounts sums the per-second buckets inside the trailing window.
// Caller holds the mutex.
func (a *Aggregator) windowCounts(now time.Time, window time.Duration) (total, errs int) {
	seconds := int64(window / time.Second)
	sec := now.Unix()
	for i := int64(0); i < seconds; i++ {
		b := a.buckets[int((sec-i)%int64(len(a.buckets)))]
		if b.sec == sec-i {
			total += b.total
			errs += b.errors
		}
	}
	return total, errs
}

func (a *Aggregator) topErrors() []domain.ErrorCount {
	if len(a.errorCounts) == 0 {
		return nil
	}
	ranked := make([]domain.ErrorCount, 0, len(a.errorCounts))
	for msg, count := range a.errorCounts {
		ranked = append(ranked, domain.ErrorCount{Message: msg, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Message < ranked[j].Message
	})
	if len(ranked) > a.cfg.TopErrors {
		ranked = ranked[:a.cfg.TopErrors]
	}
	return ranked
}

// MergeSnapshots combines the rolling counters of several aggregators
// into one consistent AggregateStats, as exposed for the whole stream
// controller. Window configuration is taken from the first aggregator;
// all aggregators in one controller share it.
func MergeSnapshots(aggs []*Aggregator) domain.AggregateStats {
	if len(aggs) == 0 {
		return domain.AggregateStats{}
	}
	if len(aggs) == 1 {
		return aggs[0].Snapshot()
	}

	cfg := aggs[0].cfg
	var totalToday int64
	var thrTotal, errTotal, errErrs int
	combined := make(map[string]int)

	for _, a := range aggs {
		now := a.clk.Now()
		a.mu.Lock()
		if midnight(now).Equal(a.day) {
			totalToday += a.totalToday
		}
		t, _ := a.windowCounts(now, a.cfg.ThroughputWindow)
		thrTotal += t
		t, e := a.windowCounts(now, a.cfg.ErrorWindow)
		errTotal += t
		errErrs += e
		for msg, count := range a.errorCounts {
			combined[msg] += count
		}
		a.mu.Unlock()
	}

	stats := domain.AggregateStats{
		TotalToday:      totalToday,
		EventsPerSecond: float64(thrTotal) / cfg.ThroughputWindow.Seconds(),
	}
	if errTotal > 0 {
		stats.ErrorRate = float64(errErrs) / float64(errTotal)
	}
	if len(combined) > 0 {
		ranked := make([]domain.ErrorCount, 0, len(combined))
		for msg, count := range combined {
			ranked = append(ranked, domain.ErrorCount{Message: msg, Count: count})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Count != ranked[j].Count {
				return ranked[i].Count > ranked[j].Count
			}
			return ranked[i].Message < ranked[j].Message
		})
		if len(ranked) > cfg.TopErrors {
			ranked = ranked[:cfg.TopErrors]
		}
		stats.TopErrors = ranked
	}
	return stats
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
