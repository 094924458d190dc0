package stream

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/logtap/logtap/internal/domain"
)

var watcherIDCounter atomic.Uint64

// Watcher is one live consumer of the log stream (e.g. an SSE client).
// Entries failing the watcher's criteria are skipped; a full channel
// drops the entry rather than blocking the ingest path.
type Watcher struct {
	id       string
	ch       chan domain.LogEntry
	criteria domain.FilterCriteria
	closed   atomic.Bool
}

func newWatcher(criteria domain.FilterCriteria, bufferSize int) *Watcher {
	id := watcherIDCounter.Add(1)
	return &Watcher{
		id:       "watch-" + strconv.FormatUint(id, 10),
		ch:       make(chan domain.LogEntry, bufferSize),
		criteria: criteria,
	}
}

// ID returns the watcher ID
func (w *Watcher) ID() string {
	return w.id
}

// send attempts to deliver an entry to the watcher.
// Returns false if the channel is full or closed.
func (w *Watcher) send(entry domain.LogEntry, m matcher) bool {
	if w.closed.Load() {
		return false
	}
	if !m.matches(entry) {
		return true // filtered out, but not a failure
	}
	select {
	case w.ch <- entry:
		return true
	default:
		return false
	}
}

func (w *Watcher) close() {
	if w.closed.CompareAndSwap(false, true) {
		close(w.ch)
	}
}

// WatcherHub fans received log entries out to live watchers
type WatcherHub struct {
	mu         sync.RWMutex
	watchers   map[string]*Watcher
	bufferSize int
	clk        clock.Clock
	log        *zap.Logger
}

// NewWatcherHub creates a watcher hub
func NewWatcherHub(bufferSize int, clk clock.Clock, log *zap.Logger) *WatcherHub {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WatcherHub{
		watchers:   make(map[string]*Watcher),
		bufferSize: bufferSize,
		clk:        clk,
		log:        log,
	}
}

// Subscribe registers a new watcher with the given criteria
func (h *WatcherHub) Subscribe(criteria domain.FilterCriteria) (string, <-chan domain.LogEntry) {
	w := newWatcher(criteria, h.bufferSize)

	h.mu.Lock()
	h.watchers[w.id] = w
	h.mu.Unlock()

	return w.id, w.ch
}

// Unsubscribe removes a watcher
func (h *WatcherHub) Unsubscribe(id string) {
	h.mu.Lock()
	w, ok := h.watchers[id]
	if ok {
		delete(h.watchers, id)
	}
	h.mu.Unlock()

	if ok {
		w.close()
	}
}

// Broadcast delivers an entry to all watchers whose criteria accept it.
// The relative time window of each watcher is resolved at delivery time.
func (h *WatcherHub) Broadcast(entry domain.LogEntry) {
	now := h.clk.Now()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, w := range h.watchers {
		if !w.send(entry, newMatcher(w.criteria, now)) {
			h.log.Debug("watcher dropped entry",
				zap.String("watcher", w.id),
				zap.String("subscription", entry.SubscriptionID))
		}
	}
}

// Count returns the number of active watchers
func (h *WatcherHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Close closes all watchers
func (h *WatcherHub) Close() {
	h.mu.Lock()
	watchers := make([]*Watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		watchers = append(watchers, w)
	}
	h.watchers = make(map[string]*Watcher)
	h.mu.Unlock()

	for _, w := range watchers {
		w.close()
	}
}
