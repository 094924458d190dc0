package domain

import "time"

// Level represents the severity level of a log entry
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Levels lists all known levels in ascending priority order
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelCritical}

// Priority returns the numeric priority of a level (higher = more severe)
func (l Level) Priority() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	case LevelCritical:
		return 4
	default:
		return 1
	}
}

// IsError reports whether the level counts toward the error rate
func (l Level) IsError() bool {
	return l == LevelError || l == LevelCritical
}

// String returns the string representation of Level
func (l Level) String() string {
	return string(l)
}

// ParseLevel converts a string to a Level. The second return value is
// false when the string does not name a known level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "DEBUG", "debug":
		return LevelDebug, true
	case "INFO", "info":
		return LevelInfo, true
	case "WARN", "warn", "WARNING", "warning":
		return LevelWarn, true
	case "ERROR", "error":
		return LevelError, true
	case "CRITICAL", "critical", "FATAL", "fatal":
		return LevelCritical, true
	default:
		return "", false
	}
}

// LogEntry represents a single log event received on a subscription.
// Entries are immutable once created; they leave the system only through
// buffer eviction.
type LogEntry struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	Level          Level          `json:"level"`
	Message        string         `json:"message"`
	Source         string         `json:"source,omitempty"`
	Service        string         `json:"service,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	SubscriptionID string         `json:"subscription_id"`
}
