package api

import (
	"time"

	"github.com/logtap/logtap/internal/domain"
)

// StatusResponse represents the response for GET /status
type StatusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ConfigFile    string `json:"config_file,omitempty"`
	Paused        bool   `json:"paused"`
	Subscriptions int    `json:"subscriptions"`
	Connected     int    `json:"connected"`
	UnreadAlerts  int    `json:"unread_alerts"`
	APIVersion    string `json:"api_version"`
}

// SubscriptionListResponse represents the response for GET /subscriptions
type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// SubscriptionResponse represents a single subscription in responses
type SubscriptionResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Provider          string  `json:"provider"`
	State             string  `json:"state"`
	LastError         string  `json:"last_error,omitempty"`
	ReconnectAttempts int     `json:"reconnect_attempts"`
	Paused            bool    `json:"paused"`
	LastSync          string  `json:"last_sync,omitempty"`
	EventsPerSecond   float64 `json:"events_per_second"`
	BufferedLogs      int     `json:"buffered_logs"`
}

// LogsResponse represents the response for GET /logs
type LogsResponse struct {
	Logs          []LogEntryResponse `json:"logs"`
	FilteredCount int                `json:"filtered_count"`
	TotalCount    int                `json:"total_count"`
}

// LogEntryResponse represents a single log entry
type LogEntryResponse struct {
	ID           string         `json:"id"`
	Timestamp    string         `json:"timestamp"`
	Level        string         `json:"level"`
	Message      string         `json:"message"`
	Source       string         `json:"source,omitempty"`
	Service      string         `json:"service,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Subscription string         `json:"subscription"`
}

// AlertsResponse represents the response for GET /alerts
type AlertsResponse struct {
	Alerts      []AlertResponse `json:"alerts"`
	UnreadCount int             `json:"unread_count"`
}

// AlertResponse represents a single alert
type AlertResponse struct {
	ID               string         `json:"id"`
	Timestamp        string         `json:"timestamp"`
	Severity         string         `json:"severity"`
	Message          string         `json:"message"`
	SubscriptionID   string         `json:"subscription_id"`
	SubscriptionName string         `json:"subscription_name,omitempty"`
	Type             string         `json:"type"`
	Detail           map[string]any `json:"detail,omitempty"`
	IsRead           bool           `json:"is_read"`
}

// StatsResponse represents the response for GET /stats
type StatsResponse struct {
	TotalToday      int64                `json:"total_today"`
	EventsPerSecond float64              `json:"events_per_second"`
	ErrorRate       float64              `json:"error_rate"`
	TopErrors       []ErrorCountResponse `json:"top_errors"`
}

// ErrorCountResponse is one ranked frequent error message
type ErrorCountResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// FilterResponse represents the stored filter criteria
type FilterResponse struct {
	Levels []string `json:"levels,omitempty"`
	Query  string   `json:"query,omitempty"`
	Source string   `json:"source,omitempty"`
	Last   string   `json:"last,omitempty"`
	From   string   `json:"from,omitempty"`
	To     string   `json:"to,omitempty"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToSubscriptionResponse converts a domain.SubscriptionStatus
func ToSubscriptionResponse(s domain.SubscriptionStatus) SubscriptionResponse {
	resp := SubscriptionResponse{
		ID:                s.ID,
		Name:              s.Name,
		Provider:          s.Provider,
		State:             string(s.State),
		LastError:         s.LastError,
		ReconnectAttempts: s.ReconnectAttempts,
		Paused:            s.Paused,
		EventsPerSecond:   s.EventsPerSecond,
		BufferedLogs:      s.BufferedLogs,
	}
	if !s.LastSync.IsZero() {
		resp.LastSync = s.LastSync.Format(time.RFC3339)
	}
	return resp
}

// ToLogEntryResponse converts a domain.LogEntry
func ToLogEntryResponse(entry domain.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:           entry.ID,
		Timestamp:    entry.Timestamp.Format(time.RFC3339Nano),
		Level:        string(entry.Level),
		Message:      entry.Message,
		Source:       entry.Source,
		Service:      entry.Service,
		Metadata:     entry.Metadata,
		Subscription: entry.SubscriptionID,
	}
}

// ToAlertResponse converts a domain.Alert
func ToAlertResponse(alert domain.Alert) AlertResponse {
	return AlertResponse{
		ID:               alert.ID,
		Timestamp:        alert.Timestamp.Format(time.RFC3339Nano),
		Severity:         string(alert.Severity),
		Message:          alert.Message,
		SubscriptionID:   alert.SubscriptionID,
		SubscriptionName: alert.SubscriptionName,
		Type:             string(alert.Type),
		Detail:           alert.Detail,
		IsRead:           alert.IsRead,
	}
}

// ToStatsResponse converts domain.AggregateStats
func ToStatsResponse(stats domain.AggregateStats) StatsResponse {
	resp := StatsResponse{
		TotalToday:      stats.TotalToday,
		EventsPerSecond: stats.EventsPerSecond,
		ErrorRate:       stats.ErrorRate,
		TopErrors:       make([]ErrorCountResponse, len(stats.TopErrors)),
	}
	for i, e := range stats.TopErrors {
		resp.TopErrors[i] = ErrorCountResponse{Message: e.Message, Count: e.Count}
	}
	return resp
}

// ToFilterResponse converts domain.FilterCriteria
func ToFilterResponse(c domain.FilterCriteria) FilterResponse {
	resp := FilterResponse{
		Query:  c.Query,
		Source: c.Source,
	}
	for _, l := range c.Levels {
		resp.Levels = append(resp.Levels, string(l))
	}
	if c.Last > 0 {
		resp.Last = c.Last.String()
	}
	if !c.From.IsZero() {
		resp.From = c.From.Format(time.RFC3339)
	}
	if !c.To.IsZero() {
		resp.To = c.To.Format(time.RFC3339)
	}
	return resp
}
