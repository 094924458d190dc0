package stream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/logtap/logtap/internal/domain"
)

// Frame types on the wire. Each inbound frame is a discriminated message
// with a type field and a data payload; an initial auth frame carries the
// subscription identity outbound.
const (
	frameTypeLog    = "log"
	frameTypeAlert  = "alert"
	frameTypeStats  = "stats"
	frameTypeStatus = "connection_status"
	frameTypeAuth   = "auth"
	frameTypePing   = "ping"
)

// frame is the outer envelope of every wire message
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// authPayload is sent as the first frame after the transport opens.
// Config is the opaque provider blob; the core forwards it unparsed.
type authPayload struct {
	SubscriptionID string         `json:"subscription_id"`
	Provider       string         `json:"provider,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
}

func marshalAuth(p authPayload) (json.RawMessage, error) {
	return json.Marshal(p)
}

// ProviderStats is a provider-side stats snapshot delivered on the stream
type ProviderStats struct {
	EventsPerSecond float64 `json:"events_per_second"`
	TotalToday      int64   `json:"total_today,omitempty"`
}

// StatusUpdate is a provider-side connection status notification
type StatusUpdate struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// inboundEvent is one parsed frame. Exactly one field is non-nil.
type inboundEvent struct {
	Log    *domain.LogEntry
	Alert  *domain.Alert
	Stats  *ProviderStats
	Status *StatusUpdate
}

// errUnknownFrame marks frame types the core does not understand.
// Unknown frames are dropped with a warning, never fatal.
var errUnknownFrame = fmt.Errorf("unknown frame type")

// wireLog is the inbound log payload shape
type wireLog struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source,omitempty"`
	Service   string         `json:"service,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// wireAlert is the inbound alert payload shape
type wireAlert struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Type      string         `json:"type,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// parseFrame decodes one raw transport frame into an inbound event.
// The type field is sniffed before the payload is decoded so a malformed
// payload of one type never poisons dispatch of the next frame.
func parseFrame(data []byte, sub domain.Subscription) (inboundEvent, error) {
	typ := gjson.GetBytes(data, "type")
	if !typ.Exists() {
		return inboundEvent{}, fmt.Errorf("frame missing type field")
	}

	switch typ.String() {
	case frameTypeLog:
		return parseLogFrame(data, sub)
	case frameTypeAlert:
		return parseAlertFrame(data, sub)
	case frameTypeStats:
		var f struct {
			Data ProviderStats `json:"data"`
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return inboundEvent{}, fmt.Errorf("decoding stats frame: %w", err)
		}
		return inboundEvent{Stats: &f.Data}, nil
	case frameTypeStatus:
		var f struct {
			Data StatusUpdate `json:"data"`
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return inboundEvent{}, fmt.Errorf("decoding status frame: %w", err)
		}
		return inboundEvent{Status: &f.Data}, nil
	default:
		return inboundEvent{}, fmt.Errorf("%w: %q", errUnknownFrame, typ.String())
	}
}

func parseLogFrame(data []byte, sub domain.Subscription) (inboundEvent, error) {
	var f struct {
		Data wireLog `json:"data"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return inboundEvent{}, fmt.Errorf("decoding log frame: %w", err)
	}
	if f.Data.Message == "" && f.Data.ID == "" {
		return inboundEvent{}, fmt.Errorf("log frame missing payload")
	}
	level, ok := domain.ParseLevel(f.Data.Level)
	if !ok {
		return inboundEvent{}, fmt.Errorf("log frame has unknown level %q", f.Data.Level)
	}
	ts := f.Data.Timestamp
	if ts.IsZero() {
		return inboundEvent{}, fmt.Errorf("log frame missing timestamp")
	}
	return inboundEvent{Log: &domain.LogEntry{
		ID:             f.Data.ID,
		Timestamp:      ts,
		Level:          level,
		Message:        f.Data.Message,
		Source:         f.Data.Source,
		Service:        f.Data.Service,
		Metadata:       f.Data.Metadata,
		SubscriptionID: sub.ID,
	}}, nil
}

func parseAlertFrame(data []byte, sub domain.Subscription) (inboundEvent, error) {
	var f struct {
		Data wireAlert `json:"data"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return inboundEvent{}, fmt.Errorf("decoding alert frame: %w", err)
	}
	severity, ok := domain.ParseSeverity(f.Data.Severity)
	if !ok {
		return inboundEvent{}, fmt.Errorf("alert frame has unknown severity %q", f.Data.Severity)
	}
	alertType := domain.AlertType(f.Data.Type)
	switch alertType {
	case domain.AlertTypeThreshold, domain.AlertTypeKeyword, domain.AlertTypeAnomaly, domain.AlertTypeConnection:
	case "":
		alertType = domain.AlertTypeAnomaly
	default:
		return inboundEvent{}, fmt.Errorf("alert frame has unknown type %q", f.Data.Type)
	}
	ts := f.Data.Timestamp
	if ts.IsZero() {
		return inboundEvent{}, fmt.Errorf("alert frame missing timestamp")
	}
	return inboundEvent{Alert: &domain.Alert{
		ID:               f.Data.ID,
		Timestamp:        ts,
		Severity:         severity,
		Message:          f.Data.Message,
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
		Type:             alertType,
		Detail:           f.Data.Detail,
	}}, nil
}
