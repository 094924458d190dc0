package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/logtap/logtap/internal/api"
	"github.com/logtap/logtap/internal/config"
	"github.com/logtap/logtap/internal/daemon"
	"github.com/logtap/logtap/internal/stream"
)

var servePort int

// serveCmd starts the streaming server and API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start streaming and serve the API",
	Long: `Opens the configured streaming subscriptions and serves the HTTP
API. Logs from all subscriptions are printed to the terminal; client
commands (logs, alerts, stats, ...) talk to the running server.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override the API port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}

	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	env, err := cfg.ResolveEnv()
	if err != nil {
		return err
	}

	ctrlCfg, err := cfg.ControllerConfig()
	if err != nil {
		return err
	}
	specs, err := cfg.SubscriptionSpecs(env)
	if err != nil {
		return err
	}

	controller := stream.NewController(ctrlCfg, specs, stream.NewWebsocketTransport(), nil, logger)

	shutdownCh := make(chan struct{})
	shutdownFn := func() { close(shutdownCh) }

	authEnabled := cfg.AuthEnabled()
	if !authEnabled && cfg.API.Auth != nil && !*cfg.API.Auth && !isLocalhost(cfg.API.Host) {
		fmt.Fprintf(os.Stderr, "WARNING: Auth disabled while binding to all interfaces (%s)\n", cfg.API.Host)
		fmt.Fprintf(os.Stderr, "         Any network client can control this server.\n")
	}

	handlers := api.NewHandlers(controller, configPath, shutdownFn, logger)
	server, err := api.NewServer(api.ServerConfig{
		Host:        cfg.API.Host,
		Port:        cfg.API.Port,
		AuthEnabled: authEnabled,
	}, handlers, logger)
	if err != nil {
		return err
	}

	// Single-instance guard plus state for client command discovery
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.MkdirAll(daemon.StateDir(cwd), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	pidFile := daemon.NewPIDFile(daemon.PIDPath(cwd))
	if err := pidFile.Create(); err != nil {
		return err
	}
	defer pidFile.Release() //nolint:errcheck

	state := &daemon.State{
		PID:        os.Getpid(),
		Port:       cfg.API.Port,
		Host:       cfg.API.Host,
		Token:      server.Token(),
		StartedAt:  time.Now(),
		ConfigFile: configPath,
	}
	if err := state.Write(cwd); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	defer daemon.RemoveState(cwd) //nolint:errcheck

	fmt.Printf("Starting logtap with config: %s\n", configPath)
	fmt.Printf("API server: http://%s", server.Addr())
	if authEnabled {
		fmt.Printf(" (auth enabled)")
	}
	fmt.Println()

	controller.StartAll()

	// Print the live stream to the terminal
	printer := NewLogPrinter()
	watchID, events := controller.Watch(controller.Criteria())
	go func() {
		for entry := range events {
			printer.PrintEntry(entry)
		}
	}()

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(server.Start)
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
		case <-shutdownCh:
			fmt.Println("\nShutdown requested via API...")
		case <-ctx.Done():
			return ctx.Err()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	controller.Unwatch(watchID)
	controller.Close()

	fmt.Println("Shutdown complete")
	return err
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func isLocalhost(host string) bool {
	return host == "" || host == "127.0.0.1" || host == "localhost" || host == "::1"
}
