package stream

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/logtap/logtap/internal/domain"
)

// ControllerConfig holds the shared tunables for all subscriptions
type ControllerConfig struct {
	BufferCap     int
	AlertCap      int
	WatcherBuffer int
	Stats         StatsConfig

	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	HeartbeatInterval    time.Duration
	ConnectTimeout       time.Duration

	KeywordRules  []KeywordRule
	ErrorRateRule *ErrorRateRule
}

// SubscriptionSpec describes one subscription to wire up
type SubscriptionSpec struct {
	Subscription domain.Subscription
	Endpoint     string
	AuthConfig   map[string]any
}

// session owns the wiring for one subscription: its connection manager,
// buffer and stats aggregator. Sessions share no mutable state with each
// other; the alert register and watcher hub are the only stores shared
// across subscriptions.
type session struct {
	sub    domain.Subscription
	conn   *ConnManager
	buffer *Buffer
	stats  *Aggregator

	mu           sync.Mutex
	providerRate float64
	lastSync     time.Time
}

// Controller orchestrates the stream components per subscription and is
// the only type callers invoke directly. All ingest-path mutation
// happens on each connection's receive goroutine, never on the caller's.
type Controller struct {
	cfg       ControllerConfig
	transport Transport
	clk       clock.Clock
	log       *zap.Logger

	sessions map[string]*session // static after construction
	order    []string            // subscription ids in config order
	alerts   *AlertRegister
	hub      *WatcherHub
	rules    *RuleSet
	alertSeq atomic.Uint64

	mu       sync.RWMutex
	paused   bool
	criteria domain.FilterCriteria
}

// NewController creates a controller for a fixed set of subscriptions
func NewController(cfg ControllerConfig, specs []SubscriptionSpec, transport Transport, clk clock.Clock, log *zap.Logger) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Controller{
		cfg:       cfg,
		transport: transport,
		clk:       clk,
		log:       log,
		sessions:  make(map[string]*session, len(specs)),
		alerts:    NewAlertRegister(cfg.AlertCap),
		hub:       NewWatcherHub(cfg.WatcherBuffer, clk, log),
		rules:     NewRuleSet(cfg.KeywordRules, cfg.ErrorRateRule, clk),
	}

	for _, spec := range specs {
		s := &session{
			sub:    spec.Subscription,
			buffer: NewBuffer(cfg.BufferCap),
			stats:  NewAggregator(cfg.Stats, clk),
		}
		s.conn = NewConnManager(ConnConfig{
			Subscription:         spec.Subscription,
			Endpoint:             spec.Endpoint,
			AuthConfig:           spec.AuthConfig,
			MaxReconnectAttempts: cfg.MaxReconnectAttempts,
			ReconnectDelay:       cfg.ReconnectDelay,
			HeartbeatInterval:    cfg.HeartbeatInterval,
			ConnectTimeout:       cfg.ConnectTimeout,
		}, transport, clk, log, Hooks{
			OnLog:         func(e domain.LogEntry) { c.onLog(s, e) },
			OnAlert:       func(a domain.Alert) { c.alerts.Add(a) },
			OnStats:       func(ps ProviderStats) { c.onProviderStats(s, ps) },
			OnStateChange: func(state domain.ConnState, cause error) { c.onStateChange(s, state, cause) },
		})
		c.sessions[spec.Subscription.ID] = s
		c.order = append(c.order, spec.Subscription.ID)
	}
	return c
}

// ingest path

func (c *Controller) onLog(s *session, entry domain.LogEntry) {
	s.buffer.Push(entry)
	s.stats.OnLogEvent(entry)

	s.mu.Lock()
	s.lastSync = c.clk.Now()
	s.mu.Unlock()

	for _, alert := range c.rules.EvalLog(entry, s.sub.Name, func() float64 {
		return s.stats.Snapshot().ErrorRate
	}) {
		c.alerts.Add(alert)
	}

	c.hub.Broadcast(entry)
}

func (c *Controller) onProviderStats(s *session, ps ProviderStats) {
	s.mu.Lock()
	s.providerRate = ps.EventsPerSecond
	s.lastSync = c.clk.Now()
	s.mu.Unlock()
}

func (c *Controller) onStateChange(s *session, state domain.ConnState, cause error) {
	if state != domain.ConnStateFailed {
		return
	}
	message := "connection failed"
	if cause != nil {
		message = cause.Error()
	}
	c.alerts.Add(domain.Alert{
		ID:               "conn-" + strconv.FormatUint(c.alertSeq.Add(1), 10),
		Timestamp:        c.clk.Now(),
		Severity:         domain.SeverityHigh,
		Message:          message,
		SubscriptionID:   s.sub.ID,
		SubscriptionName: s.sub.Name,
		Type:             domain.AlertTypeConnection,
	})
}

// lifecycle

// Start opens the stream for one subscription. Starting an already
// started subscription is a no-op.
func (c *Controller) Start(subscriptionID string) error {
	s, err := c.session(subscriptionID)
	if err != nil {
		return err
	}
	s.conn.Start()
	return nil
}

// Stop closes the stream for one subscription
func (c *Controller) Stop(subscriptionID string) error {
	s, err := c.session(subscriptionID)
	if err != nil {
		return err
	}
	s.conn.Stop()
	return nil
}

// StartAll opens every configured stream
func (c *Controller) StartAll() {
	for _, id := range c.order {
		c.sessions[id].conn.Start()
	}
}

// StopAll closes every stream
func (c *Controller) StopAll() {
	for _, id := range c.order {
		c.sessions[id].conn.Stop()
	}
}

// Close stops all streams and releases live watchers
func (c *Controller) Close() {
	c.StopAll()
	c.hub.Close()
}

// Pause freezes the visible buffers without stopping the underlying
// connections; throughput keeps being measured while paused. Pausing
// when already paused is a no-op.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()

	for _, s := range c.sessions {
		s.buffer.SetPaused(true)
	}
	c.log.Info("stream paused")
}

// Resume flushes entries buffered while paused into the visible buffers
// in arrival order. Resuming when not paused is a no-op.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()

	for _, s := range c.sessions {
		s.buffer.SetPaused(false)
	}
	c.log.Info("stream resumed")
}

// Paused reports whether the stream view is paused
func (c *Controller) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// filtering

// SetCriteria replaces the stored filter criteria
func (c *Controller) SetCriteria(criteria domain.FilterCriteria) {
	c.mu.Lock()
	c.criteria = criteria
	c.mu.Unlock()
}

// Criteria returns the stored filter criteria
func (c *Controller) Criteria() domain.FilterCriteria {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.criteria
}

// FilteredView derives the filtered view from the current buffers and
// the stored criteria. Limit <= 0 means no limit.
func (c *Controller) FilteredView(limit int) []domain.LogEntry {
	return c.Query(c.Criteria(), limit)
}

// Query derives a filtered view with explicit criteria, newest-first
// across all subscriptions. It never mutates buffer contents.
func (c *Controller) Query(criteria domain.FilterCriteria, limit int) []domain.LogEntry {
	merged := c.merged()
	filtered := Apply(merged, criteria, c.clk.Now())
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// merged concatenates all buffer snapshots newest-first. Entries with
// equal timestamps keep their per-subscription insertion order.
func (c *Controller) merged() []domain.LogEntry {
	var entries []domain.LogEntry
	for _, id := range c.order {
		entries = append(entries, c.sessions[id].buffer.Snapshot()...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

// BufferedCount returns the total number of visible entries
func (c *Controller) BufferedCount() int {
	total := 0
	for _, s := range c.sessions {
		total += s.buffer.Len()
	}
	return total
}

// ClearBuffers empties every subscription's buffer, including entries
// held while paused
func (c *Controller) ClearBuffers() {
	for _, s := range c.sessions {
		s.buffer.Clear()
	}
}

// alerts

// Alerts returns alerts matching the query, newest-first
func (c *Controller) Alerts(query AlertQuery) []domain.Alert {
	return c.alerts.Snapshot(query)
}

// MarkAlertRead marks one alert read; idempotent per alert
func (c *Controller) MarkAlertRead(id string) error {
	return c.alerts.MarkRead(id)
}

// MarkAllAlertsRead marks every alert read
func (c *Controller) MarkAllAlertsRead() {
	c.alerts.MarkAllRead()
}

// DismissAlert removes one alert
func (c *Controller) DismissAlert(id string) error {
	return c.alerts.Dismiss(id)
}

// UnreadAlerts returns the current unread count
func (c *Controller) UnreadAlerts() int {
	return c.alerts.Unread()
}

// stats and status

// Stats returns the merged aggregate stats across all subscriptions
func (c *Controller) Stats() domain.AggregateStats {
	aggs := make([]*Aggregator, 0, len(c.order))
	for _, id := range c.order {
		aggs = append(aggs, c.sessions[id].stats)
	}
	return MergeSnapshots(aggs)
}

// Status returns the live status of one subscription
func (c *Controller) Status(subscriptionID string) (domain.SubscriptionStatus, error) {
	s, err := c.session(subscriptionID)
	if err != nil {
		return domain.SubscriptionStatus{}, err
	}
	return c.status(s), nil
}

// StatusAll returns the live status of every subscription in config order
func (c *Controller) StatusAll() []domain.SubscriptionStatus {
	statuses := make([]domain.SubscriptionStatus, 0, len(c.order))
	for _, id := range c.order {
		statuses = append(statuses, c.status(c.sessions[id]))
	}
	return statuses
}

func (c *Controller) status(s *session) domain.SubscriptionStatus {
	s.mu.Lock()
	lastSync := s.lastSync
	providerRate := s.providerRate
	s.mu.Unlock()

	rate := s.stats.Snapshot().EventsPerSecond
	if rate == 0 {
		rate = providerRate
	}
	return domain.SubscriptionStatus{
		Subscription:    s.sub,
		ConnStatus:      s.conn.Status(),
		Paused:          s.buffer.Paused(),
		LastSync:        lastSync,
		EventsPerSecond: rate,
		BufferedLogs:    s.buffer.Len(),
	}
}

// export and live watching

// Export returns a read-only copy of the current buffer and alert
// contents for bulk serialization. The logs are unfiltered, newest-first
// across subscriptions.
func (c *Controller) Export() ([]domain.LogEntry, []domain.Alert) {
	return c.merged(), c.alerts.Snapshot(AlertQuery{})
}

// Watch registers a live watcher over the log stream
func (c *Controller) Watch(criteria domain.FilterCriteria) (string, <-chan domain.LogEntry) {
	return c.hub.Subscribe(criteria)
}

// Unwatch removes a live watcher
func (c *Controller) Unwatch(id string) {
	c.hub.Unsubscribe(id)
}

func (c *Controller) session(id string) (*session, error) {
	s, ok := c.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubscriptionNotFound, id)
	}
	return s, nil
}
