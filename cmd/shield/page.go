package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/suppression"
)

var pageFlags struct {
	profile  profileFlags
	outDir   string
	format   string
	record   bool
	progress bool
}

var pageCmd = &cobra.Command{
	Use:   "page FILE...",
	Short: "Annotate HTML files once",
	Long: `Run one scan pass over each HTML file and blur the spoilers found.

With a single file and no --out-dir the annotated HTML is written to standard
output and a summary to standard error. With --out-dir every annotated file
is written there under its own name and a detection report is printed.

Examples:
  # Annotate one page
  shield page feed.html > feed.annotated.html

  # Annotate a batch and list the detections as CSV
  shield page --out-dir annotated --format csv pages/*.html

  # Also store the detections in the event log
  shield page --record --out-dir annotated pages/*.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: annotatePages,
}

func init() {
	rootCmd.AddCommand(pageCmd)

	pageFlags.profile.register(pageCmd)
	pageCmd.Flags().StringVarP(&pageFlags.outDir, "out-dir", "o", "", "directory for annotated files")
	pageCmd.Flags().StringVar(&pageFlags.format, "format", "text", "report format: text, json, csv")
	pageCmd.Flags().BoolVar(&pageFlags.record, "record", false, "store detections in the event log")
	pageCmd.Flags().BoolVar(&pageFlags.progress, "progress", false, "show progress on stderr")
}

// collectSink keeps events in memory and optionally forwards them.
type collectSink struct {
	mu     sync.Mutex
	events []*events.DetectionEvent
	next   suppression.EventSink
}

func (s *collectSink) Record(ctx context.Context, ev *events.DetectionEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	if s.next != nil {
		return s.next.Record(ctx, ev)
	}
	return nil
}

// eventTable renders detection events as rows.
type eventTable []*events.DetectionEvent

func (t eventTable) Header() []string {
	return []string{"DETECTED", "SOURCE", "SEGMENT", "CONFIDENCE", "RISK", "MATCHED", "PREVIEW"}
}

func (t eventTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, ev := range t {
		rows = append(rows, []string{
			ev.DetectedAt.Format("2006-01-02T15:04:05Z07:00"),
			ev.Source,
			strconv.FormatUint(ev.SegmentID, 10),
			strconv.Itoa(ev.Confidence),
			ev.RiskLevel,
			strings.Join(ev.MatchedTerms, ", "),
			events.TruncatePreview(ev.ContentPreview, 60),
		})
	}
	return rows
}

func annotatePages(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(pageFlags.format)
	if err != nil {
		return err
	}
	if len(args) > 1 && pageFlags.outDir == "" {
		return errors.New("--out-dir is required with more than one file")
	}

	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	p, err := pageFlags.profile.resolve(cfg)
	if err != nil {
		return cli.NewCommandError("page", err)
	}

	sink := &collectSink{}
	if pageFlags.record {
		store, err := openStorage(&cfg.Events)
		if err != nil {
			return cli.NewCommandError("page", err)
		}
		defer store.Close()
		rec := newRecorder(store, &cfg.Events)
		defer rec.Close()
		sink.next = rec
	}

	if pageFlags.outDir != "" {
		if err := os.MkdirAll(pageFlags.outDir, 0o755); err != nil {
			return cli.NewCommandError("page", err)
		}
	}

	progress := cli.NewProgress(cmd.ErrOrStderr(), "files", int64(len(args)), pageFlags.progress)

	total := 0
	for i, path := range args {
		out := cmd.OutOrStdout()
		var file *os.File
		if pageFlags.outDir != "" {
			file, err = os.Create(filepath.Join(pageFlags.outDir, filepath.Base(path)))
			if err != nil {
				return cli.NewCommandError("page", err)
			}
			out = file
		}

		stats, err := annotatePage(cfg, p, path, sink, out)
		if file != nil {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			progress.Fail(err)
			return cli.NewCommandError("page", err)
		}
		total += stats.Segments
		progress.Set(int64(i+1), filepath.Base(path))
	}
	progress.Done()

	if pageFlags.outDir == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ %d of %d segments blocked\n", len(sink.events), total)
		return nil
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), eventTable(sink.events))
}

// annotatePage scans one file and renders the annotated result to w.
func annotatePage(cfg *config.Config, p *detection.Profile, path string, sink suppression.EventSink, w io.Writer) (stats pageStats, err error) {
	f, err := os.Open(path)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	doc, err := document.Parse(f)
	if err != nil {
		return stats, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	source := filepath.Base(path)
	pl, err := newPipeline(cfg, doc, pipelineOptions{
		Sink:   sink,
		Source: func(document.SegmentID) string { return source },
	})
	if err != nil {
		return stats, err
	}
	defer pl.ctrl.Close()

	if err := pl.ctrl.UpdateProfile(p); err != nil {
		return stats, err
	}
	pass := pl.ctrl.ScanNow()
	stats.Segments = pass.Segments
	stats.Blocked = pass.Blocked

	if err := doc.Render(w); err != nil {
		return stats, fmt.Errorf("failed to render %s: %w", path, err)
	}
	return stats, nil
}

type pageStats struct {
	Segments int
	Blocked  int
}
