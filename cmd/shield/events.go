package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/export"
	"spoilerblock/shield/pkg/events/query"
	"spoilerblock/shield/pkg/events/retention"
)

// eventFilter holds the query flags shared by the events subcommands.
type eventFilter struct {
	since         time.Duration
	timeRange     string
	source        string
	risk          string
	minConfidence int
}

func (f *eventFilter) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.since, "since", 0, "only events newer than this (e.g. 24h)")
	cmd.Flags().StringVar(&f.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	cmd.Flags().StringVar(&f.source, "source", "", "filter by source (fragment or file name)")
	cmd.Flags().StringVar(&f.risk, "risk", "", "filter by risk level (low, medium, high)")
	cmd.Flags().IntVar(&f.minConfidence, "min-confidence", 0, "minimum confidence (0-100)")
}

// query builds the query; now anchors --since.
func (f *eventFilter) query(now time.Time) (*events.Query, error) {
	q := &events.Query{
		Source:        f.source,
		RiskLevel:     f.risk,
		MinConfidence: f.minConfidence,
	}
	if f.since > 0 && f.timeRange != "" {
		return nil, errors.New("--since and --time-range are mutually exclusive")
	}
	if f.since > 0 {
		start := now.Add(-f.since)
		q.StartTime = &start
	}
	if f.timeRange != "" {
		start, end, err := parseTimeRange(f.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = &start, &end
	}
	return q, nil
}

func (f *eventFilter) empty() bool {
	return f.since == 0 && f.timeRange == "" && f.source == "" && f.risk == "" && f.minConfidence == 0
}

func parseTimeRange(s string) (start, end time.Time, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return start, end, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	if start, err = time.Parse(time.RFC3339, parts[0]); err != nil {
		return start, end, fmt.Errorf("invalid start time: %w", err)
	}
	if end, err = time.Parse(time.RFC3339, parts[1]); err != nil {
		return start, end, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

var eventsFlags struct {
	filter   eventFilter
	limit    int
	offset   int
	order    string
	format   string
	exportAs string
	output   string
	progress bool
	all      bool

	maxAge     time.Duration
	maxRecords int64
	archive    bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the detection log",
	Long: `Query, export and prune the log of detected spoilers.

Subcommands:
  query   - List detection events with filters
  export  - Write matching events to a JSON or CSV file
  delete  - Delete matching events
  prune   - Apply the retention policy now`,
}

var eventsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List detection events",
	Long: `List detection events, newest first.

Examples:
  # Last day of detections
  shield events query --since 24h

  # High risk detections from one fragment, as JSON
  shield events query --source feed.html --risk high --format json`,
	RunE: queryEvents,
}

var eventsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export detection events",
	Long: `Export every matching detection event, oldest first.

Examples:
  shield events export --format csv -o detections.csv
  shield events export --since 168h --format json -o week.json`,
	RunE: exportEvents,
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete detection events",
	Long: `Delete matching detection events. Without filters --all is required.

Examples:
  shield events delete --source feed.html
  shield events delete --all`,
	RunE: deleteEvents,
}

var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy",
	Long: `Delete events beyond the configured retention limits now instead of
waiting for the scheduled run. Flags override the configured limits.`,
	RunE: pruneEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsQueryCmd, eventsExportCmd, eventsDeleteCmd, eventsPruneCmd)

	for _, c := range []*cobra.Command{eventsQueryCmd, eventsExportCmd, eventsDeleteCmd} {
		eventsFlags.filter.register(c)
	}

	eventsQueryCmd.Flags().IntVar(&eventsFlags.limit, "limit", query.DefaultLimit, "max results")
	eventsQueryCmd.Flags().IntVar(&eventsFlags.offset, "offset", 0, "pagination offset")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.order, "order", "desc", "sort order: asc, desc")
	eventsQueryCmd.Flags().StringVar(&eventsFlags.format, "format", "text", "output format: text, json, csv")

	eventsExportCmd.Flags().StringVar(&eventsFlags.exportAs, "format", "json", "export format: json, csv")
	eventsExportCmd.Flags().StringVarP(&eventsFlags.output, "output", "o", "", "output file (default: stdout)")
	eventsExportCmd.Flags().BoolVar(&eventsFlags.progress, "progress", false, "show progress on stderr")

	eventsDeleteCmd.Flags().BoolVar(&eventsFlags.all, "all", false, "delete every event")

	eventsPruneCmd.Flags().DurationVar(&eventsFlags.maxAge, "max-age", 0, "override events.retention.max_age")
	eventsPruneCmd.Flags().Int64Var(&eventsFlags.maxRecords, "max-records", 0, "override events.retention.max_records")
	eventsPruneCmd.Flags().BoolVar(&eventsFlags.archive, "archive", false, "archive events before deleting")
}

// withStorage loads config, opens the event store and runs fn.
func withStorage(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, store events.Storage) error) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	store, err := openStorage(&cfg.Events)
	if err != nil {
		return cli.NewCommandError("events", err)
	}
	defer store.Close()

	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	if err := fn(ctx, cfg, store); err != nil {
		return cli.NewCommandError("events", err)
	}
	return nil
}

func queryEvents(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(eventsFlags.format)
	if err != nil {
		return err
	}
	q, err := eventsFlags.filter.query(time.Now())
	if err != nil {
		return err
	}
	q.Limit, q.Offset, q.SortOrder = eventsFlags.limit, eventsFlags.offset, eventsFlags.order
	if err := query.Validate(q); err != nil {
		return err
	}
	query.ApplyDefaults(q)

	return withStorage(cmd, func(ctx context.Context, _ *config.Config, store events.Storage) error {
		evs, err := store.Query(ctx, q)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		total, err := store.Count(ctx, q)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(out, map[string]any{
				"total":  total,
				"events": evs,
			})
		}
		if err := cli.NewFormatter(format).FormatTo(out, eventTable(evs)); err != nil {
			return err
		}
		if format == cli.FormatText && int64(q.Offset+len(evs)) < total {
			fmt.Fprintf(out, "\nShowing %d of %d events. Use --limit and --offset for pagination.\n", len(evs), total)
		}
		return nil
	})
}

func exportEvents(cmd *cobra.Command, args []string) error {
	exporter, err := export.New(eventsFlags.exportAs, true)
	if err != nil {
		return err
	}
	q, err := eventsFlags.filter.query(time.Now())
	if err != nil {
		return err
	}
	q.SortOrder = "asc"

	return withStorage(cmd, func(ctx context.Context, _ *config.Config, store events.Storage) error {
		total, err := store.Count(ctx, q)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}

		progress := cli.NewProgress(cmd.ErrOrStderr(), "events", total, eventsFlags.progress)

		all := make([]*events.DetectionEvent, 0, total)
		for page := *q; ; page.Offset += page.Limit {
			page.Limit = query.MaxLimit
			evs, err := store.Query(ctx, &page)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			all = append(all, evs...)
			progress.Set(int64(len(all)), "")
			if len(evs) < page.Limit {
				break
			}
		}
		progress.Done()

		var out io.Writer = cmd.OutOrStdout()
		if eventsFlags.output != "" {
			f, err := os.Create(eventsFlags.output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		if err := exporter.Export(ctx, all, out); err != nil {
			return err
		}
		if eventsFlags.output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d events to %s\n", len(all), eventsFlags.output)
		}
		return nil
	})
}

func deleteEvents(cmd *cobra.Command, args []string) error {
	if eventsFlags.filter.empty() && !eventsFlags.all {
		return errors.New("refusing to delete every event without --all")
	}
	q, err := eventsFlags.filter.query(time.Now())
	if err != nil {
		return err
	}
	if err := query.Validate(q); err != nil {
		return err
	}

	return withStorage(cmd, func(ctx context.Context, _ *config.Config, store events.Storage) error {
		n, err := store.Delete(ctx, q)
		if err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d events\n", n)
		return nil
	})
}

func pruneEvents(cmd *cobra.Command, args []string) error {
	return withStorage(cmd, func(ctx context.Context, cfg *config.Config, store events.Storage) error {
		rc := retentionConfig(&cfg.Events.Retention)
		if eventsFlags.maxAge > 0 {
			rc.MaxAge = eventsFlags.maxAge
		}
		if eventsFlags.maxRecords > 0 {
			rc.MaxRecords = eventsFlags.maxRecords
		}
		if eventsFlags.archive {
			rc.ArchiveBeforeDelete = true
		}

		n, err := retention.NewPruner(store, rc).Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d events (%s)\n", n, rc)
		return nil
	})
}

func retentionConfig(cfg *config.RetentionConfig) *retention.Config {
	return &retention.Config{
		MaxAge:              cfg.MaxAge,
		MaxRecords:          cfg.MaxRecords,
		PruneSchedule:       cfg.PruneSchedule,
		ArchiveBeforeDelete: cfg.ArchiveBeforeDelete,
		ArchivePath:         cfg.ArchivePath,
	}
}
