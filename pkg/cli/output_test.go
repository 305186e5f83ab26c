package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type verdicts [][]string

func (v verdicts) Header() []string { return []string{"text", "spoiler", "confidence"} }
func (v verdicts) Rows() [][]string { return v }

var sample = verdicts{
	{"Walter White dies", "true", "100"},
	{"nice weather, today", "false", "0"},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextFormatter{}).FormatTo(&buf, "test message"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "test message\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}

	buf.Reset()
	if err := (&TextFormatter{}).FormatTo(&buf, sample); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	// Columns are aligned, so the second column starts at the same offset.
	col := strings.Index(lines[0], "spoiler")
	if strings.Index(lines[1], "true") != col || strings.Index(lines[2], "false") != col {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]int{"blocked": 2}
	if err := (&JSONFormatter{Indent: true}).FormatTo(&buf, data); err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["blocked"] != 2 {
		t.Errorf("got %v", got)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("Indent did not indent")
	}
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&CSVFormatter{}).FormatTo(&buf, sample); err != nil {
		t.Fatal(err)
	}
	want := "text,spoiler,confidence\nWalter White dies,true,100\n\"nice weather, today\",false,0\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}

	if err := (&CSVFormatter{}).FormatTo(&buf, "not a table"); !errors.Is(err, ErrNotTabular) {
		t.Errorf("FormatTo(string) error = %v, want ErrNotTabular", err)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		got := NewFormatter(tt.format)
		var name string
		switch got.(type) {
		case *TextFormatter:
			name = "*cli.TextFormatter"
		case *JSONFormatter:
			name = "*cli.JSONFormatter"
		case *CSVFormatter:
			name = "*cli.CSVFormatter"
		}
		if name != tt.want {
			t.Errorf("NewFormatter(%q) = %T, want %s", tt.format, got, tt.want)
		}
	}
}
