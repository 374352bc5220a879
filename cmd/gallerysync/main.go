package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amelner/gallerysync/internal/api"
	"github.com/amelner/gallerysync/internal/config"
	"github.com/amelner/gallerysync/internal/controllers"
	"github.com/amelner/gallerysync/internal/prefs"
	"github.com/amelner/gallerysync/internal/scheduler"
	"github.com/amelner/gallerysync/internal/services/backend"
	"github.com/amelner/gallerysync/internal/services/realtime"
	"github.com/amelner/gallerysync/internal/snapshot"
	"github.com/amelner/gallerysync/internal/store"
	"github.com/amelner/gallerysync/internal/telemetry"
	"github.com/amelner/gallerysync/internal/utils"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "gallerysync",
		Short:        "Keeps a local gallery mirror in sync with the generation backend",
		Version:      version,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running daemon's sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus()
		},
	}

	rootCmd.AddCommand(serveCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printStatus fetches /status from the local daemon and prints it
func printStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	resp, err := http.Get("http://localhost:" + cfg.ServerPort + "/status")
	if err != nil {
		return fmt.Errorf("daemon not reachable on port %s: %w", cfg.ServerPort, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request returned %d", resp.StatusCode)
	}
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		return fmt.Errorf("failed to read status response: %w", err)
	}
	fmt.Println()
	return nil
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting gallerysync")
	logger.WithField("data_dir", filepath.Dir(cfg.SnapshotFile)).Info("Configuration loaded")

	// 3. Setup tracing
	shutdownTracing, err := telemetry.Setup(cfg.TraceStdout)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// 4. Open local databases
	snap, err := snapshot.Open(cfg.SnapshotFile)
	if err != nil {
		logger.WithError(err).Warn("Snapshot database unavailable, continuing without offline cache")
		snap = nil
	} else {
		defer snap.Close()
	}

	prefsMgr, err := prefs.Open(cfg.PrefsFile, logger)
	if err != nil {
		logger.WithError(err).Warn("Preferences database unavailable, changes will not persist")
		prefsMgr = prefs.NewMemory(logger)
	}
	defer prefsMgr.Close()

	// 5. Initialize backend clients
	backendClient, err := backend.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize backend client: %w", err)
	}
	logger.Info("Backend client initialized")

	realtimeClient, err := realtime.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize realtime client: %w", err)
	}

	// 6. Initialize store and controllers
	st := store.New(cfg.PageSize)
	registry := realtime.NewRegistry()
	folderCtrl := controllers.NewFolderController(st, backendClient, logger)
	mutationCtrl := controllers.NewMutationController(st, backendClient, logger)
	loader := controllers.NewLoader(
		st,
		backendClient,
		realtimeClient,
		registry,
		folderCtrl,
		snap,
		cfg.Debounce,
		cfg.RetryBaseDelay,
		cfg.RetryMaxAttempts,
		logger,
	)
	folderCtrl.SetRefresher(loader.Refresh)
	logger.Info("Controllers initialized")

	// 7. Initial load and realtime subscription
	if err := loader.Activate(context.Background()); err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}
	defer loader.Deactivate()

	// 8. Start the pending-poll scheduler
	sched := scheduler.NewScheduler(loader, st, int(cfg.PollInterval.Seconds()), logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 9. Start the local HTTP server
	server := api.NewServer(cfg, st, backendClient, loader, folderCtrl, mutationCtrl, prefsMgr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 10. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("gallerysync is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("gallerysync stopped")
	return nil
}
