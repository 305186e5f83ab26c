package events

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello"},
		{"multibyte", "héllo wörld", 7, "héllo w"},
		{"disabled", "hello", 0, "hello"},
		{"empty", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncatePreview(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncatePreview(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncatePreview_LongText(t *testing.T) {
	long := strings.Repeat("ü", 800)
	got := TruncatePreview(long, 500)
	if n := utf8.RuneCountInString(got); n != 500 {
		t.Errorf("rune count = %d, want 500", n)
	}
	if !utf8.ValidString(got) {
		t.Error("truncated preview is not valid UTF-8")
	}
}
