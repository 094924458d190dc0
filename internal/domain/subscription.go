package domain

import "time"

// ConnState represents the lifecycle state of a subscription's stream
type ConnState string

const (
	ConnStateDisconnected ConnState = "disconnected"
	ConnStateConnecting   ConnState = "connecting"
	ConnStateConnected    ConnState = "connected"
	ConnStateReconnecting ConnState = "reconnecting"
	ConnStateFailed       ConnState = "failed"
)

// String returns the string representation of ConnState
func (s ConnState) String() string {
	return string(s)
}

// Live reports whether the state has an active or pending transport
func (s ConnState) Live() bool {
	return s == ConnStateConnecting || s == ConnStateConnected || s == ConnStateReconnecting
}

// Subscription describes one logical live log stream tied to one
// external connection configuration. The provider-specific configuration
// blob is owned by the config layer and never interpreted by the core.
type Subscription struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ConnStatus is the observable status of a subscription's connection
type ConnStatus struct {
	State             ConnState `json:"state"`
	LastError         string    `json:"last_error,omitempty"`
	ReconnectAttempts int       `json:"reconnect_attempts"`
}

// SubscriptionStatus combines the descriptor with live health and
// throughput for external consumption.
type SubscriptionStatus struct {
	Subscription
	ConnStatus
	Paused          bool      `json:"paused"`
	LastSync        time.Time `json:"last_sync,omitzero"`
	EventsPerSecond float64   `json:"events_per_second"`
	BufferedLogs    int       `json:"buffered_logs"`
}
