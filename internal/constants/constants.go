// Package constants provides shared configuration values used across the logtap application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "logtap.yaml"

	// DefaultAPIHost is the default host for the API server
	DefaultAPIHost = "127.0.0.1"

	// DefaultAPIPort is the default port for the API server
	DefaultAPIPort = 5660

	// DefaultAPIAddress is the default API address for client connections
	DefaultAPIAddress = "http://127.0.0.1:5660"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for API requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// Stream defaults
const (
	// DefaultBufferCap is the hard cap on retained log entries per subscription
	DefaultBufferCap = 10000

	// DefaultAlertCap is the hard cap on retained alerts
	DefaultAlertCap = 1000

	// DefaultMaxReconnectAttempts is the reconnect attempt budget per outage
	DefaultMaxReconnectAttempts = 5

	// DefaultReconnectDelay is the delay between reconnect attempts
	DefaultReconnectDelay = 3 * time.Second

	// DefaultHeartbeatInterval is the liveness probe interval while connected
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultConnectTimeout bounds a single connect attempt
	DefaultConnectTimeout = 10 * time.Second

	// DefaultThroughputWindow is the trailing window for events/sec
	DefaultThroughputWindow = 10 * time.Second

	// DefaultErrorWindow is the trailing window for the error rate
	DefaultErrorWindow = 60 * time.Second

	// DefaultTopErrors bounds the ranked list of frequent error messages
	DefaultTopErrors = 10
)

// Query limits
const (
	// DefaultLogLimit is the default number of log entries to return
	DefaultLogLimit = 100

	// MaxLogLimit is the maximum number of log entries that can be requested
	// to prevent memory exhaustion (DoS protection)
	MaxLogLimit = 10000

	// DefaultWatcherBuffer is the channel buffer size for live watchers
	DefaultWatcherBuffer = 100
)

// ANSI color codes for terminal output
var (
	// LevelColors maps log levels to terminal colors
	LevelColors = map[string]string{
		"DEBUG":    "\033[90m", // gray
		"INFO":     "\033[36m", // cyan
		"WARN":     "\033[33m", // yellow
		"ERROR":    "\033[31m", // red
		"CRITICAL": "\033[91m", // bright red
	}

	// SubscriptionColors are the colors used for subscription names in terminal output
	SubscriptionColors = []string{
		"\033[36m", // cyan
		"\033[33m", // yellow
		"\033[32m", // green
		"\033[35m", // magenta
		"\033[34m", // blue
		"\033[31m", // red
	}

	// ColorReset resets the terminal color
	ColorReset = "\033[0m"
)
