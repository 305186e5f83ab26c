package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spoilerblock/shield/pkg/events"
)

const feedPage = `<!DOCTYPE html><html><head><title>Feed</title></head><body>
<p>Walter White dies at the end of the show.</p>
<p>Great cinematography in this episode.</p>
<script>var walter = "Walter White dies";</script>
</body></html>`

func resetPageFlags(t *testing.T) {
	t.Helper()
	orig := pageFlags
	t.Cleanup(func() { pageFlags = orig })
	pageFlags.profile = profileFlags{keywords: []string{"Walter White"}}
	pageFlags.outDir = ""
	pageFlags.format = "text"
	pageFlags.record = false
	pageFlags.progress = false
}

func TestAnnotatePages_Stdout(t *testing.T) {
	dir := useConfig(t, "")
	resetPageFlags(t)
	path := filepath.Join(dir, "feed.html")
	writeFile(t, path, feedPage)

	cmd, out, errOut := newTestCmd("")
	if err := annotatePages(cmd, []string{path}); err != nil {
		t.Fatal(err)
	}

	html := out.String()
	if n := strings.Count(html, `class="spoiler-blurred"`); n != 1 {
		t.Errorf("got %d suppressed spans, want 1:\n%s", n, html)
	}
	if !strings.Contains(html, `var walter = "Walter White dies";`) {
		t.Error("script content was modified")
	}
	if !strings.Contains(errOut.String(), "1 of 2 segments blocked") {
		t.Errorf("summary = %q", errOut.String())
	}
}

func TestAnnotatePages_OutDirAndRecord(t *testing.T) {
	dir := useConfig(t, "")
	writeFile(t, cfgFile, sqliteConfig(dir))
	resetPageFlags(t)

	a := filepath.Join(dir, "a.html")
	b := filepath.Join(dir, "b.html")
	writeFile(t, a, feedPage)
	writeFile(t, b, "<p>Nothing about any show in this paragraph.</p>")

	pageFlags.outDir = filepath.Join(dir, "out")
	pageFlags.format = "csv"
	pageFlags.record = true
	pageFlags.progress = true

	cmd, out, errOut := newTestCmd("")
	if err := annotatePages(cmd, []string{a, b}); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a.html", "b.html"} {
		if _, err := os.Stat(filepath.Join(pageFlags.outDir, name)); err != nil {
			t.Errorf("annotated %s not written: %v", name, err)
		}
	}
	rows := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(rows) != 2 || !strings.Contains(rows[1], ",a.html,") {
		t.Errorf("report = %q, want header and one a.html row", out.String())
	}
	if !strings.Contains(errOut.String(), "2/2 files") {
		t.Errorf("progress = %q", errOut.String())
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	store, err := openStorage(&cfg.Events)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	n, err := store.Count(context.Background(), &events.Query{Source: "a.html"})
	if err != nil || n != 1 {
		t.Errorf("stored events for a.html = %d, %v; want 1", n, err)
	}
}

func TestAnnotatePages_Errors(t *testing.T) {
	dir := useConfig(t, "")
	resetPageFlags(t)
	path := filepath.Join(dir, "feed.html")
	writeFile(t, path, feedPage)

	cmd, _, _ := newTestCmd("")
	if err := annotatePages(cmd, []string{path, path}); err == nil {
		t.Error("multiple files without --out-dir accepted")
	}
	if err := annotatePages(cmd, []string{filepath.Join(dir, "missing.html")}); err == nil {
		t.Error("missing file accepted")
	}
}
