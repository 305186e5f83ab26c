package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/retention"
	"spoilerblock/shield/pkg/profile"
	"spoilerblock/shield/pkg/scanner"
	"spoilerblock/shield/pkg/suppression"
	"spoilerblock/shield/pkg/telemetry/health"
	"spoilerblock/shield/pkg/telemetry/metrics"
	"spoilerblock/shield/pkg/telemetry/tracing"
)

const shutdownTimeout = 5 * time.Second

var runFlags struct {
	fragmentsDir  string
	output        string
	listenAddress string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch a page and suppress spoilers as they appear",
	Long: `Watch a directory of HTML fragments that make up a live page and keep it
free of spoilers.

Every .html file in the fragments directory is a piece of the page; files that
appear, change or disappear are applied to the page as they happen, the way
an infinite feed grows. After each scan pass the annotated page is written to
the output path. The profile file is reloaded when it changes.

A local HTTP server exposes metrics, health probes and the reader's controls:
  GET  /segments                 tracked segments (no text)
  POST /segments/{id}/reveal     reveal a blocked segment
  GET  /scanning, PUT /scanning  read or set {"enabled": bool}
  POST /scan                     run a pass now

Examples:
  # Watch ./page and write out.html
  shield run --output out.html

  # Use a custom configuration
  shield run --config /etc/shield/config.yaml

  # Validate config without starting
  shield run --dry-run`,
	RunE: runShield,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.fragmentsDir, "fragments", "f", "", "override scanner.fragments_dir")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "", "override scanner.output_path")
	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override telemetry.metrics.listen_address")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runShield(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if runFlags.fragmentsDir != "" {
		cfg.Scanner.FragmentsDir = runFlags.fragmentsDir
	}
	if runFlags.output != "" {
		cfg.Scanner.OutputPath = runFlags.output
	}
	if runFlags.listenAddress != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.listenAddress
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}
	fmt.Fprintf(out, "Shield v%s\n", Version)

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	checker := health.New(cfg.Telemetry.Health.CheckTimeout)

	var sink suppression.EventSink
	if cfg.Events.Enabled {
		store, err := openStorage(&cfg.Events)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer store.Close()

		rec := newRecorder(store, &cfg.Events)
		defer rec.Close()
		sink = rec
		if err := collector.WatchRecorder(rec.Stats); err != nil {
			logger.Warn("failed to register recorder metrics", "error", err)
		}
		checker.Register("events", health.StorageCheck(store))

		startRetention(ctx, store, &cfg.Events.Retention, collector, logger)
		fmt.Fprintf(out, "✓ Event log ready (%s)\n", cfg.Events.Backend)
	}

	doc := document.New()
	publish := newPublisher(doc, cfg.Scanner.OutputPath, logger)

	pl, err := newPipeline(cfg, doc, pipelineOptions{
		Sink:      sink,
		Collector: collector,
		Tracer:    tracer.Tracer(),
		Logger:    logger,
		OnPass:    func(scanner.PassStats) { publish() },
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer pl.ctrl.Close()
	if pl.cache != nil {
		if err := collector.WatchCacheSize(pl.cache.Len); err != nil {
			logger.Warn("failed to register cache metrics", "error", err)
		}
	}

	watcher, err := profile.NewWatcher(cfg.Profile.Path, 0, pl.ctrl.UpdateProfile, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer watcher.Close()
	if err := watcher.Reload(); err != nil {
		fmt.Fprintf(out, "! Profile %s not loaded, using an empty profile: %v\n", cfg.Profile.Path, err)
	} else {
		fmt.Fprintf(out, "✓ Profile loaded from %s\n", cfg.Profile.Path)
	}
	checker.Register("profile", health.ProfileCheck(watcher.LastError))
	if cfg.Profile.Watch {
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("profile watcher stopped", "error", err)
			}
		}()
	}

	if err := os.MkdirAll(cfg.Scanner.FragmentsDir, 0o755); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create fragments dir: %w", err))
	}
	fragments, err := document.NewFragmentWatcher(doc, cfg.Scanner.FragmentsDir, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer fragments.Stop()
	if err := fragments.LoadExisting(); err != nil {
		return cli.NewCommandError("run", err)
	}
	checker.Register("fragments", health.DirCheck(cfg.Scanner.FragmentsDir))
	go func() {
		if err := fragments.Watch(ctx); err != nil {
			logger.Error("fragment watcher stopped", "error", err)
		}
	}()

	pl.ctrl.SetEnabled(true)
	fmt.Fprintf(out, "✓ Watching %s (%d fragments)\n", cfg.Scanner.FragmentsDir, len(doc.Fragments()))
	if cfg.Scanner.OutputPath != "" {
		fmt.Fprintf(out, "✓ Writing annotated page to %s\n", cfg.Scanner.OutputPath)
	}

	errChan := make(chan error, 1)
	var srv *http.Server
	if cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Health.Enabled {
		control := &controlServer{
			cfg:       &cfg.Telemetry,
			pipeline:  pl,
			collector: collector,
			checker:   checker,
			logger:    logger.With("component", "control"),
			render:    publish,
		}
		srv = &http.Server{
			Addr:              cfg.Telemetry.Metrics.ListenAddress,
			Handler:           control.handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("starting control server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("server error: %w", err)
			}
		}()
		fmt.Fprintf(out, "✓ Control server on http://%s\n", srv.Addr)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
	}

	pl.ctrl.SetEnabled(false)
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}
	}
	publish()
	fmt.Fprintln(out, "✓ Stopped")
	return nil
}

// startRetention schedules pruning of the event log. Failures are logged;
// shield keeps running with an unbounded log.
func startRetention(ctx context.Context, store events.Storage, cfg *config.RetentionConfig, collector *metrics.Collector, logger *slog.Logger) {
	rc := retentionConfig(cfg)
	rc.OnPrune = collector.ObservePruned

	pruner := retention.NewPruner(store, rc)
	if err := pruner.Start(ctx); err != nil {
		logger.Warn("failed to start retention scheduler", "error", err)
		return
	}
	if next := pruner.NextPruning(); next != nil {
		logger.Debug("event retention scheduler started", "next_pruning", next)
	}
}

// newPublisher returns a function that writes the rendered document to path
// atomically. An empty path yields a no-op.
func newPublisher(doc *document.Document, path string, logger *slog.Logger) func() {
	if path == "" {
		return func() {}
	}
	return func() {
		if err := writeAtomic(path, doc); err != nil {
			logger.Error("failed to write annotated page", "path", path, "error", err)
		}
	}
}

func writeAtomic(path string, doc *document.Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := doc.Render(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
