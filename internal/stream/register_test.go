package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtap/logtap/internal/domain"
)

func alert(id string, severity domain.Severity) domain.Alert {
	return domain.Alert{
		ID:             id,
		Timestamp:      time.Now(),
		Severity:       severity,
		Message:        "alert " + id,
		SubscriptionID: "sub-1",
		Type:           domain.AlertTypeAnomaly,
	}
}

func alertIDs(alerts []domain.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.ID
	}
	return out
}

func TestRegisterAddAndSnapshot(t *testing.T) {
	r := NewAlertRegister(10)

	r.Add(alert("a", domain.SeverityLow))
	r.Add(alert("b", domain.SeverityHigh))

	// Newest-first
	assert.Equal(t, []string{"b", "a"}, alertIDs(r.Snapshot(AlertQuery{})))
	assert.Equal(t, 2, r.Unread())
}

func TestRegisterMarkReadIdempotent(t *testing.T) {
	r := NewAlertRegister(10)
	r.Add(alert("a", domain.SeverityLow))
	r.Add(alert("b", domain.SeverityLow))

	require.NoError(t, r.MarkRead("a"))
	assert.Equal(t, 1, r.Unread())

	// Second MarkRead must not decrement again
	require.NoError(t, r.MarkRead("a"))
	assert.Equal(t, 1, r.Unread())
}

func TestRegisterMarkReadUnknown(t *testing.T) {
	r := NewAlertRegister(10)
	err := r.MarkRead("missing")
	assert.ErrorIs(t, err, domain.ErrAlertNotFound)
}

func TestRegisterMarkAllRead(t *testing.T) {
	r := NewAlertRegister(10)
	for i := 0; i < 5; i++ {
		r.Add(alert(fmt.Sprintf("a%d", i), domain.SeverityMedium))
	}

	r.MarkAllRead()

	assert.Equal(t, 0, r.Unread())
	for _, a := range r.Snapshot(AlertQuery{}) {
		assert.True(t, a.IsRead)
	}
}

func TestRegisterDismiss(t *testing.T) {
	r := NewAlertRegister(10)
	r.Add(alert("a", domain.SeverityLow))
	r.Add(alert("b", domain.SeverityLow))

	require.NoError(t, r.Dismiss("a"))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.Unread())
	assert.ErrorIs(t, r.Dismiss("a"), domain.ErrAlertNotFound)
}

func TestRegisterDismissReadAlertKeepsUnreadCount(t *testing.T) {
	r := NewAlertRegister(10)
	r.Add(alert("a", domain.SeverityLow))
	r.Add(alert("b", domain.SeverityLow))

	require.NoError(t, r.MarkRead("a"))
	require.NoError(t, r.Dismiss("a"))

	assert.Equal(t, 1, r.Unread())
}

func TestRegisterEvictsOldestAtCap(t *testing.T) {
	r := NewAlertRegister(3)
	for i := 0; i < 5; i++ {
		r.Add(alert(fmt.Sprintf("a%d", i), domain.SeverityLow))
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"a4", "a3", "a2"}, alertIDs(r.Snapshot(AlertQuery{})))
	// Evicted unread alerts no longer count
	assert.Equal(t, 3, r.Unread())
}

func TestRegisterEvictionAdjustsUnreadForReadAlerts(t *testing.T) {
	r := NewAlertRegister(2)
	r.Add(alert("a", domain.SeverityLow))
	require.NoError(t, r.MarkRead("a"))

	r.Add(alert("b", domain.SeverityLow))
	r.Add(alert("c", domain.SeverityLow)) // evicts the read "a"

	assert.Equal(t, 2, r.Unread())
}

func TestRegisterQueryFilters(t *testing.T) {
	r := NewAlertRegister(10)
	r.Add(domain.Alert{ID: "a", Severity: domain.SeverityLow, SubscriptionID: "s1", Type: domain.AlertTypeKeyword})
	r.Add(domain.Alert{ID: "b", Severity: domain.SeverityHigh, SubscriptionID: "s2", Type: domain.AlertTypeThreshold})
	r.Add(domain.Alert{ID: "c", Severity: domain.SeverityCritical, SubscriptionID: "s1", Type: domain.AlertTypeConnection})
	require.NoError(t, r.MarkRead("a"))

	unread := true
	assert.Equal(t, []string{"c", "b"}, alertIDs(r.Snapshot(AlertQuery{Unread: &unread})))

	assert.Equal(t, []string{"b"}, alertIDs(r.Snapshot(AlertQuery{Severity: domain.SeverityHigh})))
	assert.Equal(t, []string{"c", "b"}, alertIDs(r.Snapshot(AlertQuery{MinSeverity: domain.SeverityHigh})))
	assert.Equal(t, []string{"c", "a"}, alertIDs(r.Snapshot(AlertQuery{SubscriptionID: "s1"})))
	assert.Equal(t, []string{"b"}, alertIDs(r.Snapshot(AlertQuery{Type: domain.AlertTypeThreshold})))
}
