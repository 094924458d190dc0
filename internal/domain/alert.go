package domain

import "time"

// Severity represents the severity of an alert, ordered low < medium <
// high < critical for threshold queries.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the numeric rank of a severity (higher = more severe)
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether s is min or more severe
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a string to a Severity. The second return value
// is false when the string does not name a known severity.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	default:
		return "", false
	}
}

// AlertType classifies how an alert was produced
type AlertType string

const (
	AlertTypeThreshold  AlertType = "threshold"
	AlertTypeKeyword    AlertType = "keyword"
	AlertTypeAnomaly    AlertType = "anomaly"
	AlertTypeConnection AlertType = "connection"
)

// Alert represents a single alert event. IsRead is the only mutable
// field; it transitions false to true via MarkRead or MarkAllRead on the
// register and is never flipped back.
type Alert struct {
	ID               string         `json:"id"`
	Timestamp        time.Time      `json:"timestamp"`
	Severity         Severity       `json:"severity"`
	Message          string         `json:"message"`
	SubscriptionID   string         `json:"subscription_id"`
	SubscriptionName string         `json:"subscription_name,omitempty"`
	Type             AlertType      `json:"type"`
	Detail           map[string]any `json:"detail,omitempty"`
	IsRead           bool           `json:"is_read"`
}
