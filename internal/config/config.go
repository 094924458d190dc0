package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/logtap/logtap/internal/constants"
	"github.com/logtap/logtap/internal/domain"
)

// Config represents the top-level logtap configuration
type Config struct {
	API           APIConfig                     `yaml:"api"`
	EnvFile       string                        `yaml:"env_file"`
	Stream        StreamConfig                  `yaml:"stream"`
	Subscriptions map[string]SubscriptionConfig `yaml:"subscriptions"`
	Alerts        *AlertsConfig                 `yaml:"alerts,omitempty"`

	// Dir is the directory the config was loaded from, used to resolve
	// relative env file paths
	Dir string `yaml:"-"`
}

// APIConfig defines the HTTP API configuration
type APIConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	Auth *bool  `yaml:"auth,omitempty"` // nil = auto-determine based on host
}

// StreamConfig holds the stream core tunables. Durations are YAML
// strings like "3s"; zero values fall back to defaults.
type StreamConfig struct {
	BufferCap            int    `yaml:"buffer_cap"`
	AlertCap             int    `yaml:"alert_cap"`
	MaxReconnectAttempts int    `yaml:"max_reconnect_attempts"`
	ReconnectDelay       string `yaml:"reconnect_delay"`
	HeartbeatInterval    string `yaml:"heartbeat_interval"`
	ConnectTimeout       string `yaml:"connect_timeout"`
	ThroughputWindow     string `yaml:"throughput_window"`
	ErrorWindow          string `yaml:"error_window"`
	TopErrors            int    `yaml:"top_errors"`
}

// SubscriptionConfig represents a subscription that can be either a
// simple endpoint string or an expanded form with additional options
type SubscriptionConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	// TokenEnv names an environment variable (resolved against the
	// process env merged with env_file) whose value is injected into the
	// provider config blob under the "token" key.
	TokenEnv string `yaml:"token_env"`
	// Provider-specific configuration forwarded opaquely at handshake
	// time; never interpreted by the core.
	Config map[string]any `yaml:"config"`
}

// AlertsConfig defines derived-alert rules
type AlertsConfig struct {
	Keywords  []KeywordRuleConfig  `yaml:"keywords"`
	ErrorRate *ErrorRateRuleConfig `yaml:"error_rate,omitempty"`
}

// KeywordRuleConfig defines one keyword rule
type KeywordRuleConfig struct {
	Keyword  string `yaml:"keyword"`
	MinLevel string `yaml:"min_level"`
	Severity string `yaml:"severity"`
}

// ErrorRateRuleConfig defines the error-rate threshold rule
type ErrorRateRuleConfig struct {
	Threshold float64 `yaml:"threshold"`
	Cooldown  string  `yaml:"cooldown"`
	Severity  string  `yaml:"severity"`
}

// rawConfig is used for initial YAML parsing to handle the flexible
// subscription format
type rawConfig struct {
	API           APIConfig                  `yaml:"api"`
	EnvFile       string                     `yaml:"env_file"`
	Stream        StreamConfig               `yaml:"stream"`
	Subscriptions map[string]yaml.Node       `yaml:"subscriptions"`
	Alerts        *AlertsConfig              `yaml:"alerts,omitempty"`
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	cfg := &Config{
		API:           raw.API,
		EnvFile:       raw.EnvFile,
		Stream:        raw.Stream,
		Alerts:        raw.Alerts,
		Subscriptions: make(map[string]SubscriptionConfig, len(raw.Subscriptions)),
	}

	for id, node := range raw.Subscriptions {
		sub, err := decodeSubscription(node)
		if err != nil {
			return nil, fmt.Errorf("%w: subscription %q: %v", domain.ErrInvalidConfig, id, err)
		}
		cfg.Subscriptions[id] = sub
	}

	cfg.applyDefaults()

	if abs, err := filepath.Abs(path); err == nil {
		cfg.Dir = filepath.Dir(abs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeSubscription accepts either a plain endpoint string or the
// expanded mapping form
func decodeSubscription(node yaml.Node) (SubscriptionConfig, error) {
	if node.Kind == yaml.ScalarNode {
		var endpoint string
		if err := node.Decode(&endpoint); err != nil {
			return SubscriptionConfig{}, err
		}
		return SubscriptionConfig{Endpoint: endpoint}, nil
	}

	var sub SubscriptionConfig
	if err := node.Decode(&sub); err != nil {
		return SubscriptionConfig{}, err
	}
	return sub, nil
}

func (c *Config) applyDefaults() {
	if c.API.Host == "" {
		c.API.Host = constants.DefaultAPIHost
	}
	if c.API.Port == 0 {
		c.API.Port = constants.DefaultAPIPort
	}
	for id, sub := range c.Subscriptions {
		if sub.Name == "" {
			sub.Name = id
		}
		if sub.Provider == "" {
			sub.Provider = "generic"
		}
		c.Subscriptions[id] = sub
	}
}

// AuthEnabled determines whether API authentication should be enabled.
// Follows the explicit setting when present; otherwise auth is required
// exactly when the API binds beyond loopback.
func (c *Config) AuthEnabled() bool {
	if c.API.Auth != nil {
		return *c.API.Auth
	}
	return c.API.Host != "127.0.0.1" && c.API.Host != "localhost" && c.API.Host != "::1"
}

// parseDuration parses a YAML duration string, returning fallback for ""
func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
