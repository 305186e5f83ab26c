package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/document"
)

func resetRunFlags(t *testing.T) {
	t.Helper()
	orig := runFlags
	t.Cleanup(func() { runFlags = orig })
	runFlags.fragmentsDir = ""
	runFlags.output = ""
	runFlags.listenAddress = ""
	runFlags.dryRun = true
}

func TestRunShield_DryRun(t *testing.T) {
	useConfig(t, "scanner:\n  debounce: 250ms\n")
	resetRunFlags(t)
	runFlags.output = "annotated.html"

	cmd, out, _ := newTestCmd("")
	if err := runShield(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "✓ Configuration valid") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunShield_InvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		setup func()
	}{
		{"negative debounce", "scanner:\n  debounce: -1s\n", nil},
		{"unknown key", "scanner:\n  debounse: 1s\n", nil},
		{"thresholds out of order", "detection:\n  thresholds: {low: 3, medium: 5, high: 7}\n", nil},
		{"bad listen address", "", func() { runFlags.listenAddress = "nowhere" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, tt.yaml)
			resetRunFlags(t)
			if tt.setup != nil {
				tt.setup()
			}
			cmd, _, _ := newTestCmd("")
			err := runShield(cmd, nil)
			if err == nil {
				t.Fatal("runShield() error = nil")
			}
			if code := cli.ExitCode(err); code != cli.ExitConfig {
				t.Errorf("exit code = %d, want %d (%v)", code, cli.ExitConfig, err)
			}
		})
	}
}

func TestWriteAtomic(t *testing.T) {
	doc, err := document.ParseString("<p>Nothing about any show in this paragraph.</p>")
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "out")
	path := filepath.Join(dir, "page.html")

	publish := newPublisher(doc, path, slog.New(slog.DiscardHandler))
	publish()
	publish()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Nothing about any show") {
		t.Errorf("published page = %s", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only page.html", len(entries))
	}

	// No output path means nothing to publish.
	newPublisher(doc, "", slog.New(slog.DiscardHandler))()
}

func TestRetentionConfig(t *testing.T) {
	rc := retentionConfig(&config.RetentionConfig{
		MaxAge:              48 * time.Hour,
		MaxRecords:          100,
		PruneSchedule:       "0 * * * *",
		ArchiveBeforeDelete: true,
		ArchivePath:         "archives",
	})
	if rc.MaxAge != 48*time.Hour || rc.MaxRecords != 100 || rc.PruneSchedule != "0 * * * *" ||
		!rc.ArchiveBeforeDelete || rc.ArchivePath != "archives" || rc.OnPrune != nil {
		t.Errorf("retentionConfig() = %+v", rc)
	}
}
