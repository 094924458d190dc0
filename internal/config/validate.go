package config

import (
	"fmt"
	"net/url"

	"github.com/logtap/logtap/internal/domain"
)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("%w: invalid API port %d", domain.ErrInvalidConfig, c.API.Port)
	}
	if len(c.Subscriptions) == 0 {
		return fmt.Errorf("%w: no subscriptions defined", domain.ErrInvalidConfig)
	}

	for id, sub := range c.Subscriptions {
		if sub.Endpoint == "" {
			return fmt.Errorf("%w: subscription %q has no endpoint", domain.ErrInvalidConfig, id)
		}
		u, err := url.Parse(sub.Endpoint)
		if err != nil {
			return fmt.Errorf("%w: subscription %q endpoint: %v", domain.ErrInvalidConfig, id, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("%w: subscription %q endpoint must use ws:// or wss://, got %q",
				domain.ErrInvalidConfig, id, u.Scheme)
		}
	}

	// Durations must parse even though their values are resolved later
	for _, s := range []string{
		c.Stream.ReconnectDelay,
		c.Stream.HeartbeatInterval,
		c.Stream.ConnectTimeout,
		c.Stream.ThroughputWindow,
		c.Stream.ErrorWindow,
	} {
		if _, err := parseDuration(s, 0); err != nil {
			return fmt.Errorf("%w: stream: %v", domain.ErrInvalidConfig, err)
		}
	}

	if c.Alerts != nil {
		if err := c.Alerts.validate(); err != nil {
			return fmt.Errorf("%w: alerts: %v", domain.ErrInvalidConfig, err)
		}
	}
	return nil
}

func (a *AlertsConfig) validate() error {
	for i, rule := range a.Keywords {
		if rule.Keyword == "" {
			return fmt.Errorf("keyword rule %d has no keyword", i)
		}
		if rule.MinLevel != "" {
			if _, ok := domain.ParseLevel(rule.MinLevel); !ok {
				return fmt.Errorf("keyword rule %d has unknown level %q", i, rule.MinLevel)
			}
		}
		if rule.Severity != "" {
			if _, ok := domain.ParseSeverity(rule.Severity); !ok {
				return fmt.Errorf("keyword rule %d has unknown severity %q", i, rule.Severity)
			}
		}
	}
	if a.ErrorRate != nil {
		if a.ErrorRate.Threshold <= 0 || a.ErrorRate.Threshold > 1 {
			return fmt.Errorf("error_rate threshold must be in (0, 1], got %v", a.ErrorRate.Threshold)
		}
		if _, err := parseDuration(a.ErrorRate.Cooldown, 0); err != nil {
			return fmt.Errorf("error_rate: %v", err)
		}
		if a.ErrorRate.Severity != "" {
			if _, ok := domain.ParseSeverity(a.ErrorRate.Severity); !ok {
				return fmt.Errorf("error_rate has unknown severity %q", a.ErrorRate.Severity)
			}
		}
	}
	return nil
}
