package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtap/logtap/internal/constants"
	"github.com/logtap/logtap/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logtap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadShortForm(t *testing.T) {
	path := writeConfig(t, `
subscriptions:
  prod: ws://logs.example.com/stream
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	sub, ok := cfg.Subscriptions["prod"]
	require.True(t, ok)
	assert.Equal(t, "ws://logs.example.com/stream", sub.Endpoint)
	assert.Equal(t, "prod", sub.Name, "name should default to the id")
	assert.Equal(t, "generic", sub.Provider)
}

func TestLoadExpandedForm(t *testing.T) {
	path := writeConfig(t, `
api:
  port: 9000
  host: 0.0.0.0
subscriptions:
  prod:
    name: Production
    provider: cloudwatch
    endpoint: wss://logs.example.com/stream
    token_env: PROD_TOKEN
    config:
      region: us-east-1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, "0.0.0.0", cfg.API.Host)

	sub := cfg.Subscriptions["prod"]
	assert.Equal(t, "Production", sub.Name)
	assert.Equal(t, "cloudwatch", sub.Provider)
	assert.Equal(t, "wss://logs.example.com/stream", sub.Endpoint)
	assert.Equal(t, "PROD_TOKEN", sub.TokenEnv)
	assert.Equal(t, "us-east-1", sub.Config["region"])
}

func TestLoadAPIDefaults(t *testing.T) {
	path := writeConfig(t, `
subscriptions:
  prod: ws://localhost:9999/logs
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultAPIHost, cfg.API.Host)
	assert.Equal(t, constants.DefaultAPIPort, cfg.API.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "subscriptions: [this is: not valid\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no subscriptions",
			content: `api: {port: 5660}`,
		},
		{
			name: "empty endpoint",
			content: `
subscriptions:
  prod:
    name: prod
`,
		},
		{
			name: "http scheme",
			content: `
subscriptions:
  prod: http://logs.example.com/stream
`,
		},
		{
			name: "port out of range",
			content: `
api:
  port: 70000
subscriptions:
  prod: ws://localhost/logs
`,
		},
		{
			name: "bad reconnect delay",
			content: `
stream:
  reconnect_delay: soon
subscriptions:
  prod: ws://localhost/logs
`,
		},
		{
			name: "keyword rule without keyword",
			content: `
subscriptions:
  prod: ws://localhost/logs
alerts:
  keywords:
    - min_level: error
`,
		},
		{
			name: "keyword rule unknown severity",
			content: `
subscriptions:
  prod: ws://localhost/logs
alerts:
  keywords:
    - keyword: panic
      severity: catastrophic
`,
		},
		{
			name: "error rate threshold out of range",
			content: `
subscriptions:
  prod: ws://localhost/logs
alerts:
  error_rate:
    threshold: 1.5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestAuthEnabled(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name string
		api  APIConfig
		want bool
	}{
		{"loopback default", APIConfig{Host: "127.0.0.1"}, false},
		{"localhost default", APIConfig{Host: "localhost"}, false},
		{"ipv6 loopback default", APIConfig{Host: "::1"}, false},
		{"public default", APIConfig{Host: "0.0.0.0"}, true},
		{"explicit on loopback", APIConfig{Host: "127.0.0.1", Auth: boolPtr(true)}, true},
		{"explicit off public", APIConfig{Host: "0.0.0.0", Auth: boolPtr(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{API: tt.api}
			assert.Equal(t, tt.want, cfg.AuthEnabled())
		})
	}
}

func TestControllerConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
subscriptions:
  prod: ws://localhost/logs
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	ctrl, err := cfg.ControllerConfig()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultBufferCap, ctrl.BufferCap)
	assert.Equal(t, constants.DefaultAlertCap, ctrl.AlertCap)
	assert.Equal(t, constants.DefaultMaxReconnectAttempts, ctrl.MaxReconnectAttempts)
	assert.Equal(t, constants.DefaultReconnectDelay, ctrl.ReconnectDelay)
	assert.Equal(t, constants.DefaultHeartbeatInterval, ctrl.HeartbeatInterval)
	assert.Equal(t, constants.DefaultThroughputWindow, ctrl.Stats.ThroughputWindow)
	assert.Equal(t, constants.DefaultErrorWindow, ctrl.Stats.ErrorWindow)
	assert.Equal(t, constants.DefaultTopErrors, ctrl.Stats.TopErrors)
	assert.Empty(t, ctrl.KeywordRules)
	assert.Nil(t, ctrl.ErrorRateRule)
}

func TestControllerConfigResolved(t *testing.T) {
	path := writeConfig(t, `
stream:
  buffer_cap: 500
  max_reconnect_attempts: 2
  reconnect_delay: 1s
  throughput_window: 5s
subscriptions:
  prod: ws://localhost/logs
alerts:
  keywords:
    - keyword: panic
      min_level: warn
      severity: critical
    - keyword: timeout
  error_rate:
    threshold: 0.25
    cooldown: 2m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	ctrl, err := cfg.ControllerConfig()
	require.NoError(t, err)
	assert.Equal(t, 500, ctrl.BufferCap)
	assert.Equal(t, 2, ctrl.MaxReconnectAttempts)
	assert.Equal(t, time.Second, ctrl.ReconnectDelay)
	assert.Equal(t, 5*time.Second, ctrl.Stats.ThroughputWindow)

	require.Len(t, ctrl.KeywordRules, 2)
	assert.Equal(t, "panic", ctrl.KeywordRules[0].Keyword)
	assert.Equal(t, domain.LevelWarn, ctrl.KeywordRules[0].MinLevel)
	assert.Equal(t, domain.SeverityCritical, ctrl.KeywordRules[0].Severity)
	// Unset rule fields fall back to error/medium
	assert.Equal(t, domain.LevelError, ctrl.KeywordRules[1].MinLevel)
	assert.Equal(t, domain.SeverityMedium, ctrl.KeywordRules[1].Severity)

	require.NotNil(t, ctrl.ErrorRateRule)
	assert.Equal(t, 0.25, ctrl.ErrorRateRule.Threshold)
	assert.Equal(t, 2*time.Minute, ctrl.ErrorRateRule.Cooldown)
	assert.Equal(t, domain.SeverityHigh, ctrl.ErrorRateRule.Severity)
}

func TestSubscriptionSpecs(t *testing.T) {
	path := writeConfig(t, `
subscriptions:
  stage: ws://stage.example.com/logs
  prod:
    name: Production
    endpoint: wss://prod.example.com/logs
    token_env: PROD_TOKEN
    config:
      region: us-east-1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	specs, err := cfg.SubscriptionSpecs(map[string]string{"PROD_TOKEN": "secret"})
	require.NoError(t, err)
	require.Len(t, specs, 2)

	// Stable id order
	assert.Equal(t, "prod", specs[0].Subscription.ID)
	assert.Equal(t, "stage", specs[1].Subscription.ID)

	assert.Equal(t, "Production", specs[0].Subscription.Name)
	assert.Equal(t, "secret", specs[0].AuthConfig["token"])
	assert.Equal(t, "us-east-1", specs[0].AuthConfig["region"])
	assert.Nil(t, specs[1].AuthConfig)
}

func TestSubscriptionSpecsMissingToken(t *testing.T) {
	path := writeConfig(t, `
subscriptions:
  prod:
    endpoint: ws://localhost/logs
    token_env: MISSING_TOKEN
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.SubscriptionSpecs(map[string]string{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "MISSING_TOKEN")
}

func TestResolveEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("LOGTAP_TEST_TOKEN=from-file\n"), 0644))

	cfgPath := filepath.Join(dir, "logtap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
env_file: .env
subscriptions:
  prod: ws://localhost/logs
`), 0644))

	t.Setenv("LOGTAP_TEST_TOKEN", "from-process")
	t.Setenv("LOGTAP_TEST_OTHER", "still-here")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	env, err := cfg.ResolveEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-file", env["LOGTAP_TEST_TOKEN"], "env file overrides process env")
	assert.Equal(t, "still-here", env["LOGTAP_TEST_OTHER"])
}

func TestResolveEnvMissingFile(t *testing.T) {
	path := writeConfig(t, `
env_file: missing.env
subscriptions:
  prod: ws://localhost/logs
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.ResolveEnv()
	assert.Error(t, err)
}
