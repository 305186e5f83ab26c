package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "files", 4, true)

	p.Set(2, "b.html")
	p.Set(9, "")
	p.Done()

	out := buf.String()
	for _, want := range []string{"0/4 files (0%", "2/4 files (50%", "b.html", "4/4 files (100%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%q", want, out)
		}
	}
	if strings.Contains(out, "9/4") {
		t.Error("Set beyond total not clamped")
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Done() did not end the line")
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "files", 4, false)
	if p != nil {
		t.Fatal("disabled progress is not nil")
	}

	// A nil Progress is usable.
	p.Set(1, "a.html")
	p.Fail(errors.New("boom"))
	p.Done()
	if buf.Len() != 0 {
		t.Errorf("disabled progress wrote %q", buf.String())
	}
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "events", 0, true)
	p.Set(0, "")
	p.Done()
	if buf.Len() != 0 {
		t.Errorf("zero total wrote %q", buf.String())
	}
}

func TestProgress_Fail(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "files", 10, true)
	p.Fail(errors.New("page.html: unreadable"))
	if !strings.Contains(buf.String(), "✗ page.html: unreadable") {
		t.Errorf("output = %q", buf.String())
	}
}
