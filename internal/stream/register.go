package stream

import (
	"sync"

	"github.com/logtap/logtap/internal/domain"
)

// AlertQuery selects alerts from the register. Zero fields are ignored.
type AlertQuery struct {
	Unread         *bool            // nil = both read and unread
	Severity       domain.Severity  // exact severity match
	MinSeverity    domain.Severity  // this severity or higher
	SubscriptionID string           // alerts from one subscription
	Type           domain.AlertType // exact alert type match
}

func (q AlertQuery) matches(a domain.Alert) bool {
	if q.Unread != nil && a.IsRead == *q.Unread {
		return false
	}
	if q.Severity != "" && a.Severity != q.Severity {
		return false
	}
	if q.MinSeverity != "" && !a.Severity.AtLeast(q.MinSeverity) {
		return false
	}
	if q.SubscriptionID != "" && a.SubscriptionID != q.SubscriptionID {
		return false
	}
	if q.Type != "" && a.Type != q.Type {
		return false
	}
	return true
}

// AlertRegister is the bounded store of alerts with read/unread
// accounting. Adds never fail: once the cap is reached the oldest alert
// is evicted.
type AlertRegister struct {
	mu       sync.RWMutex
	alerts   []domain.Alert // oldest first
	capacity int
	unread   int
}

// NewAlertRegister creates a register with the given hard cap
func NewAlertRegister(capacity int) *AlertRegister {
	if capacity <= 0 {
		capacity = 1000
	}
	return &AlertRegister{
		alerts:   make([]domain.Alert, 0, capacity),
		capacity: capacity,
	}
}

// Add stores an alert, evicting the oldest when the cap is reached.
// A newly added alert counts as unread unless already marked.
func (r *AlertRegister) Add(alert domain.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.alerts) == r.capacity {
		if !r.alerts[0].IsRead {
			r.unread--
		}
		copy(r.alerts, r.alerts[1:])
		r.alerts = r.alerts[:len(r.alerts)-1]
	}
	r.alerts = append(r.alerts, alert)
	if !alert.IsRead {
		r.unread++
	}
}

// MarkRead sets is_read on the alert with the given id. The transition
// happens at most once: calling MarkRead twice on the same id decrements
// the unread count only once. Returns domain.ErrAlertNotFound for an
// unknown id.
func (r *AlertRegister) MarkRead(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.alerts {
		if r.alerts[i].ID != id {
			continue
		}
		if !r.alerts[i].IsRead {
			r.alerts[i].IsRead = true
			r.unread--
		}
		return nil
	}
	return domain.ErrAlertNotFound
}

// MarkAllRead sets is_read on every alert and zeroes the unread count
func (r *AlertRegister) MarkAllRead() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.alerts {
		r.alerts[i].IsRead = true
	}
	r.unread = 0
}

// Dismiss removes the alert with the given id. Returns
// domain.ErrAlertNotFound for an unknown id.
func (r *AlertRegister) Dismiss(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.alerts {
		if r.alerts[i].ID != id {
			continue
		}
		if !r.alerts[i].IsRead {
			r.unread--
		}
		r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
		return nil
	}
	return domain.ErrAlertNotFound
}

// Snapshot returns the alerts matching the query, newest-first
func (r *AlertRegister) Snapshot(query AlertQuery) []domain.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Alert, 0, len(r.alerts))
	for i := len(r.alerts) - 1; i >= 0; i-- {
		if query.matches(r.alerts[i]) {
			result = append(result, r.alerts[i])
		}
	}
	return result
}

// Unread returns the current unread count
func (r *AlertRegister) Unread() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unread
}

// Len returns the number of retained alerts
func (r *AlertRegister) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alerts)
}

// Cap returns the hard cap on retained alerts
func (r *AlertRegister) Cap() int {
	return r.capacity
}
