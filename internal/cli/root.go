package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logtap/logtap/internal/config"
	"github.com/logtap/logtap/internal/constants"
	"github.com/logtap/logtap/internal/daemon"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath           string
	apiAddr              string
	apiAddrExplicitlySet bool
	verbose              bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "logtap",
	Short: "Real-time cloud log streaming",
	Long: `logtap streams logs from cloud providers in real time. It supports:
  - Multiple concurrent streaming subscriptions with automatic reconnect
  - Pause/resume viewing without losing entries
  - Level, text, source and time-window filtering
  - Alerting on keywords, error-rate spikes and connection failures
  - Live statistics and bulk export`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("addr") {
			apiAddrExplicitlySet = true
		}

		// For client commands, discover the API address of a running
		// server unless --addr was given explicitly
		clientCommands := map[string]bool{
			"status":    true,
			"subs":      true,
			"logs":      true,
			"tail":      true,
			"alerts":    true,
			"stats":     true,
			"filter":    true,
			"pause":     true,
			"resume":    true,
			"export":    true,
			"shutdown":  true,
			"monitor":   true,
			"start-sub": true,
			"stop-sub":  true,
			"clear":     true,
		}
		if clientCommands[cmd.Name()] && !apiAddrExplicitlySet {
			apiAddr = discoverAPIAddress()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("logtap version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", constants.DefaultAPIAddress, "API address for client commands")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.SetVersionTemplate("logtap version {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}

// loadAPIAddrFromConfig attempts to read the API address from the config
// file. Returns empty string if the config doesn't exist or can't be read.
func loadAPIAddrFromConfig() string {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ""
	}

	host := cfg.API.Host
	if host == "" {
		host = constants.DefaultAPIHost
	}
	port := cfg.API.Port
	if port == 0 {
		port = constants.DefaultAPIPort
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// discoverAPIAddress attempts to discover the API address.
// Priority:
// 1. State file (.logtap/logtap.state) - for running instances
// 2. Config file (logtap.yaml) - for configured port
// 3. Default address
func discoverAPIAddress() string {
	cwd, err := os.Getwd()
	if err == nil {
		state, err := daemon.LoadState(cwd)
		if err == nil {
			return state.Address()
		}
	}

	if addr := loadAPIAddrFromConfig(); addr != "" {
		return addr
	}
	return constants.DefaultAPIAddress
}

// discoverToken reads the auth token of a running server, empty when
// the server runs without auth
func discoverToken() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	state, err := daemon.LoadState(cwd)
	if err != nil {
		return ""
	}
	return state.Token
}

// subscriptionIDs returns configured subscription ids for shell completion
func subscriptionIDs() []string {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(cfg.Subscriptions))
	for id := range cfg.Subscriptions {
		ids = append(ids, id)
	}
	return ids
}
