package document

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Episode discussion thread</title><style>.x { color: red; }</style></head>
<body>
<p>Short</p>
<p>Walter White dies at the end of the finale, in the lab.</p>
<script>var spoiler = "Jon Snow kills Daenerys";</script>
<div hidden>Hidden text that should never be scanned at all.</div>
<p>Discussion of the cinematography continues below.</p>
</body></html>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func texts(doc *Document, ids []SegmentID) []string {
	var out []string
	for _, id := range ids {
		text, err := doc.Text(id)
		if err != nil {
			continue
		}
		out = append(out, text)
	}
	return out
}

func TestParse_AssignsUniqueIDs(t *testing.T) {
	doc := mustParse(t, samplePage)

	ids := doc.SegmentIDs()
	if len(ids) == 0 {
		t.Fatal("SegmentIDs() returned nothing")
	}
	seen := make(map[SegmentID]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		if !doc.Contains(id) {
			t.Errorf("Contains(%d) = false for a fresh id", id)
		}
	}
}

func TestAppendFragment(t *testing.T) {
	doc := New()

	var changes []Change
	cancel := doc.Subscribe(func(c Change) { changes = append(changes, c) })
	defer cancel()

	if err := doc.AppendFragment("comments.html", "<p>First comment here</p><p>Second comment here</p>"); err != nil {
		t.Fatalf("AppendFragment() error = %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	c := changes[0]
	if c.Kind != ChangeInserted || c.Fragment != "comments.html" {
		t.Errorf("change = %+v, want inserted comments.html", c)
	}
	got := texts(doc, c.Segments)
	want := []string{"First comment here", "Second comment here"}
	if !slices.Equal(got, want) {
		t.Errorf("inserted texts = %q, want %q", got, want)
	}

	// Identical content is a no-op.
	if err := doc.AppendFragment("comments.html", "<p>First comment here</p><p>Second comment here</p>"); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Errorf("identical AppendFragment notified again (%d changes)", len(changes))
	}

	// Rewriting replaces in place and reports the old segments as removed.
	if err := doc.AppendFragment("comments.html", "<p>Edited comment</p>"); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	c = changes[1]
	if len(c.Removed) != 2 {
		t.Errorf("removed = %v, want 2 ids", c.Removed)
	}
	for _, id := range c.Removed {
		if doc.Contains(id) {
			t.Errorf("removed id %d still resolves", id)
		}
		if slices.Contains(c.Segments, id) {
			t.Errorf("id %d reused after rewrite", id)
		}
	}
	for _, id := range c.Segments {
		if got := doc.FragmentOf(id); got != "comments.html" {
			t.Errorf("FragmentOf(%d) = %q", id, got)
		}
	}
	if names := doc.Fragments(); !slices.Equal(names, []string{"comments.html"}) {
		t.Errorf("Fragments() = %v", names)
	}
}

func TestRemoveFragment(t *testing.T) {
	doc := New()
	if err := doc.AppendFragment("a.html", "<p>Some appended content</p>"); err != nil {
		t.Fatal(err)
	}
	ids := doc.SegmentIDs()

	var got Change
	doc.Subscribe(func(c Change) { got = c })

	if err := doc.RemoveFragment("a.html"); err != nil {
		t.Fatalf("RemoveFragment() error = %v", err)
	}
	if got.Kind != ChangeRemoved || len(got.Removed) != 1 {
		t.Errorf("change = %+v, want one removed segment", got)
	}
	for _, id := range ids {
		if doc.Contains(id) {
			t.Errorf("id %d still present", id)
		}
	}

	err := doc.RemoveFragment("a.html")
	if !errors.Is(err, ErrUnknownFragment) {
		t.Errorf("second RemoveFragment() error = %v, want ErrUnknownFragment", err)
	}
}

func TestSetTextAndRemove(t *testing.T) {
	doc := mustParse(t, "<p>original paragraph text</p>")
	ids := doc.SegmentIDs()
	if len(ids) != 1 {
		t.Fatalf("SegmentIDs() = %v, want one", ids)
	}
	id := ids[0]

	var kinds []ChangeKind
	doc.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	if err := doc.SetText(id, "original paragraph text"); err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 0 {
		t.Errorf("unchanged SetText notified: %v", kinds)
	}
	if err := doc.SetText(id, "rewritten paragraph"); err != nil {
		t.Fatal(err)
	}
	if text, _ := doc.Text(id); text != "rewritten paragraph" {
		t.Errorf("Text() = %q after SetText", text)
	}

	if err := doc.Remove(id); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Text(id); !errors.Is(err, ErrDetached) {
		t.Errorf("Text() after Remove error = %v, want ErrDetached", err)
	}
	if err := doc.SetText(id, "x"); !errors.Is(err, ErrDetached) {
		t.Errorf("SetText() after Remove error = %v, want ErrDetached", err)
	}
	if !slices.Equal(kinds, []ChangeKind{ChangeText, ChangeRemoved}) {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestReset_NeverReusesIDs(t *testing.T) {
	doc := mustParse(t, "<p>first page body text</p>")
	before := doc.SegmentIDs()

	var got Change
	doc.Subscribe(func(c Change) { got = c })

	if err := doc.Reset(strings.NewReader("<p>second page body text</p>")); err != nil {
		t.Fatal(err)
	}
	if got.Kind != ChangeReset {
		t.Errorf("kind = %v, want reset", got.Kind)
	}
	if !slices.Equal(got.Removed, before) {
		t.Errorf("removed = %v, want %v", got.Removed, before)
	}
	for _, id := range doc.SegmentIDs() {
		if slices.Contains(before, id) {
			t.Errorf("id %d reused after Reset", id)
		}
	}
}

func TestSubscribe_Cancel(t *testing.T) {
	doc := New()
	calls := 0
	cancel := doc.Subscribe(func(Change) { calls++ })
	cancel()
	cancel()

	if err := doc.AppendFragment("x.html", "<p>content after cancel</p>"); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("cancelled observer called %d times", calls)
	}
}

func TestDocument_ConcurrentAccess(t *testing.T) {
	doc := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a'+i)) + ".html"
			_ = doc.AppendFragment(name, "<p>concurrent content block</p>")
			for _, id := range doc.SegmentIDs() {
				_, _ = doc.Text(id)
			}
			_ = doc.RemoveFragment(name)
		}(i)
	}
	wg.Wait()

	if n := len(doc.Fragments()); n != 0 {
		t.Errorf("Fragments() = %d after all removed, want 0", n)
	}
}
