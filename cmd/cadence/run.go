package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/cadence/pkg/cli"
	"mercator-hq/cadence/pkg/server"
	"mercator-hq/cadence/pkg/telemetry/health"
	"mercator-hq/cadence/pkg/watch"
)

// maxTickAge is how long the tick loop may stall before /ready fails.
const maxTickAge = time.Second

var runFlags struct {
	listenAddress string
	device        string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the playback engine",
	Long: `Run the playback engine with the banks from the configuration file.

The engine ticks at engine.tick_rate until interrupted. When server.enabled
is set, plays can be requested over HTTP, and when watch.enabled is set,
edits to the configuration file re-register banks and groups without a
restart.

Examples:
  # Start with default config
  cadence run

  # Start with custom config and real audio output
  cadence run --config /etc/cadence/cadence.yaml --device oto

  # Override listen address
  cadence run --listen 0.0.0.0:8090

  # Validate config without starting the engine
  cadence run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address (enables the server)")
	runCmd.Flags().StringVar(&runFlags.device, "device", "", "override device backend (headless, oto)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the engine")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.Enabled = true
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.device != "" {
		cfg.Device.Backend = runFlags.device
	}

	logger, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	fmt.Fprintf(out, "Cadence v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	st, err := newStack(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintf(out, "✓ Engine started (%d banks, %s device)\n", len(st.engine.Banks()), cfg.Device.Backend)

	checker := health.New(2 * time.Second)
	checker.RegisterCheck("engine", health.TickCheck(st.engine.LastTick, maxTickAge))
	if st.backend != nil {
		checker.RegisterCheck("history", st.backend.Ping)
		fmt.Fprintf(out, "✓ History recording to %s backend\n", cfg.History.Backend)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 3)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := st.engine.Run(runCtx, cfg.Engine.TickRate); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- fmt.Errorf("engine: %w", err)
		}
	}()

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, st.engine, server.Options{
			Metrics:     st.metrics,
			MetricsPath: cfg.Telemetry.Metrics.Path,
			Health:      checker,
			Version:     Version,
			Commit:      GitCommit,
			Logger:      logger,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(runCtx); err != nil {
				errChan <- err
			}
		}()
		fmt.Fprintf(out, "✓ Control server on %s\n", cfg.Server.ListenAddress)
	}

	if cfg.Watch.Enabled {
		w, err := watch.New(watch.Config{
			Path:       cfgFile,
			Debounce:   cfg.Watch.Debounce,
			SkipHidden: true,
		}, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		r := &reloader{path: cfgFile, ctl: st.engine, logger: logger}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Watch(runCtx, func() error { return r.reload(runCtx) }); err != nil {
				errChan <- err
			}
		}()
		fmt.Fprintf(out, "✓ Watching %s for changes\n", cfgFile)
	}

	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	var runErr error
	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
	case runErr = <-errChan:
		logger.Error("component failed", "error", runErr)
	}
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := st.close(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	fmt.Fprintln(out, "✓ Engine stopped")
	return nil
}
