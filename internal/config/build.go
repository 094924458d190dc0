package config

import (
	"fmt"
	"sort"

	"github.com/logtap/logtap/internal/constants"
	"github.com/logtap/logtap/internal/domain"
	"github.com/logtap/logtap/internal/stream"
)

// ControllerConfig resolves the stream tunables into the form the
// stream controller consumes. Validate must have passed.
func (c *Config) ControllerConfig() (stream.ControllerConfig, error) {
	reconnectDelay, err := parseDuration(c.Stream.ReconnectDelay, constants.DefaultReconnectDelay)
	if err != nil {
		return stream.ControllerConfig{}, err
	}
	heartbeat, err := parseDuration(c.Stream.HeartbeatInterval, constants.DefaultHeartbeatInterval)
	if err != nil {
		return stream.ControllerConfig{}, err
	}
	connectTimeout, err := parseDuration(c.Stream.ConnectTimeout, constants.DefaultConnectTimeout)
	if err != nil {
		return stream.ControllerConfig{}, err
	}
	throughputWindow, err := parseDuration(c.Stream.ThroughputWindow, constants.DefaultThroughputWindow)
	if err != nil {
		return stream.ControllerConfig{}, err
	}
	errorWindow, err := parseDuration(c.Stream.ErrorWindow, constants.DefaultErrorWindow)
	if err != nil {
		return stream.ControllerConfig{}, err
	}

	cfg := stream.ControllerConfig{
		BufferCap:            orDefault(c.Stream.BufferCap, constants.DefaultBufferCap),
		AlertCap:             orDefault(c.Stream.AlertCap, constants.DefaultAlertCap),
		WatcherBuffer:        constants.DefaultWatcherBuffer,
		MaxReconnectAttempts: orDefault(c.Stream.MaxReconnectAttempts, constants.DefaultMaxReconnectAttempts),
		ReconnectDelay:       reconnectDelay,
		HeartbeatInterval:    heartbeat,
		ConnectTimeout:       connectTimeout,
		Stats: stream.StatsConfig{
			ThroughputWindow: throughputWindow,
			ErrorWindow:      errorWindow,
			TopErrors:        orDefault(c.Stream.TopErrors, constants.DefaultTopErrors),
		},
	}

	if c.Alerts != nil {
		for _, rule := range c.Alerts.Keywords {
			minLevel := domain.LevelError
			if rule.MinLevel != "" {
				minLevel, _ = domain.ParseLevel(rule.MinLevel)
			}
			severity := domain.SeverityMedium
			if rule.Severity != "" {
				severity, _ = domain.ParseSeverity(rule.Severity)
			}
			cfg.KeywordRules = append(cfg.KeywordRules, stream.KeywordRule{
				Keyword:  rule.Keyword,
				MinLevel: minLevel,
				Severity: severity,
			})
		}
		if c.Alerts.ErrorRate != nil {
			cooldown, err := parseDuration(c.Alerts.ErrorRate.Cooldown, 0)
			if err != nil {
				return stream.ControllerConfig{}, err
			}
			severity := domain.SeverityHigh
			if c.Alerts.ErrorRate.Severity != "" {
				severity, _ = domain.ParseSeverity(c.Alerts.ErrorRate.Severity)
			}
			cfg.ErrorRateRule = &stream.ErrorRateRule{
				Threshold: c.Alerts.ErrorRate.Threshold,
				Cooldown:  cooldown,
				Severity:  severity,
			}
		}
	}
	return cfg, nil
}

// SubscriptionSpecs resolves the configured subscriptions into stream
// specs, injecting credentials from the resolved environment. Specs are
// returned in stable id order.
func (c *Config) SubscriptionSpecs(env map[string]string) ([]stream.SubscriptionSpec, error) {
	ids := make([]string, 0, len(c.Subscriptions))
	for id := range c.Subscriptions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	specs := make([]stream.SubscriptionSpec, 0, len(ids))
	for _, id := range ids {
		sub := c.Subscriptions[id]

		auth := make(map[string]any, len(sub.Config)+1)
		for k, v := range sub.Config {
			auth[k] = v
		}
		if sub.TokenEnv != "" {
			token, ok := env[sub.TokenEnv]
			if !ok || token == "" {
				return nil, fmt.Errorf("%w: subscription %q: env variable %s is not set",
					domain.ErrInvalidConfig, id, sub.TokenEnv)
			}
			auth["token"] = token
		}
		if len(auth) == 0 {
			auth = nil
		}

		specs = append(specs, stream.SubscriptionSpec{
			Subscription: domain.Subscription{
				ID:       id,
				Name:     sub.Name,
				Provider: sub.Provider,
			},
			Endpoint:   sub.Endpoint,
			AuthConfig: auth,
		})
	}
	return specs, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
