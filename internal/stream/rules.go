package stream

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/logtap/logtap/internal/domain"
)

// KeywordRule raises an alert when a log message at or above MinLevel
// contains the keyword (case-insensitive).
type KeywordRule struct {
	Keyword  string
	MinLevel domain.Level
	Severity domain.Severity
}

// ErrorRateRule raises an alert when the trailing error rate reaches
// Threshold (0..1). Cooldown bounds how often the rule can fire per
// subscription.
type ErrorRateRule struct {
	Threshold float64
	Cooldown  time.Duration
	Severity  domain.Severity
}

// RuleSet evaluates derived-alert rules on the ingest path
type RuleSet struct {
	clk       clock.Clock
	keyword   []KeywordRule
	errorRate *ErrorRateRule
	seq       atomic.Uint64

	mu        sync.Mutex
	lastFired map[string]time.Time // error-rate cooldown per subscription
}

// NewRuleSet creates a rule set. A nil errorRate disables the rate rule.
func NewRuleSet(keyword []KeywordRule, errorRate *ErrorRateRule, clk clock.Clock) *RuleSet {
	if clk == nil {
		clk = clock.New()
	}
	if errorRate != nil && errorRate.Cooldown <= 0 {
		errorRate.Cooldown = time.Minute
	}
	return &RuleSet{
		clk:       clk,
		keyword:   keyword,
		errorRate: errorRate,
		lastFired: make(map[string]time.Time),
	}
}

// EvalLog evaluates all rules against one received entry. The error rate
// is supplied lazily so it is only computed when an error-level entry
// can actually trigger the rate rule.
func (r *RuleSet) EvalLog(entry domain.LogEntry, subName string, errorRate func() float64) []domain.Alert {
	if r == nil {
		return nil
	}
	var alerts []domain.Alert
	now := r.clk.Now()

	message := strings.ToLower(entry.Message)
	for _, rule := range r.keyword {
		if entry.Level.Priority() < rule.MinLevel.Priority() {
			continue
		}
		if !strings.Contains(message, strings.ToLower(rule.Keyword)) {
			continue
		}
		alerts = append(alerts, domain.Alert{
			ID:               r.nextID(),
			Timestamp:        now,
			Severity:         rule.Severity,
			Message:          "keyword match: " + rule.Keyword,
			SubscriptionID:   entry.SubscriptionID,
			SubscriptionName: subName,
			Type:             domain.AlertTypeKeyword,
			Detail: map[string]any{
				"keyword":  rule.Keyword,
				"log_id":   entry.ID,
				"log_line": entry.Message,
			},
		})
	}

	if r.errorRate != nil && entry.Level.IsError() {
		if alert := r.evalErrorRate(entry, subName, now, errorRate); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

func (r *RuleSet) evalErrorRate(entry domain.LogEntry, subName string, now time.Time, errorRate func() float64) *domain.Alert {
	r.mu.Lock()
	last, ok := r.lastFired[entry.SubscriptionID]
	if ok && now.Sub(last) < r.errorRate.Cooldown {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	rate := errorRate()
	if rate < r.errorRate.Threshold {
		return nil
	}

	r.mu.Lock()
	r.lastFired[entry.SubscriptionID] = now
	r.mu.Unlock()

	return &domain.Alert{
		ID:               r.nextID(),
		Timestamp:        now,
		Severity:         r.errorRate.Severity,
		Message:          "error rate threshold exceeded",
		SubscriptionID:   entry.SubscriptionID,
		SubscriptionName: subName,
		Type:             domain.AlertTypeThreshold,
		Detail: map[string]any{
			"error_rate": rate,
			"threshold":  r.errorRate.Threshold,
		},
	}
}

func (r *RuleSet) nextID() string {
	return "rule-" + strconv.FormatUint(r.seq.Add(1), 10)
}
