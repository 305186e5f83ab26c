package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func resetScanFlags(t *testing.T) {
	t.Helper()
	orig := scanFlags
	t.Cleanup(func() { scanFlags = orig })
	scanFlags.profile = profileFlags{}
	scanFlags.lines = false
	scanFlags.format = "json"
}

func TestScanText_Args(t *testing.T) {
	useConfig(t, "")
	resetScanFlags(t)
	scanFlags.profile.keywords = []string{"Walter White"}

	cmd, out, _ := newTestCmd("")
	if err := scanText(cmd, []string{"Walter White dies in the finale"}); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Text         string   `json:"text"`
		IsSpoiler    bool     `json:"isSpoiler"`
		Confidence   int      `json:"confidence"`
		MatchedTerms []string `json:"matchedTerms"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if !got.IsSpoiler || got.Confidence != 100 || got.Text != "Walter White dies in the finale" {
		t.Errorf("verdict = %+v", got)
	}
	if len(got.MatchedTerms) == 0 || got.MatchedTerms[0] != "Walter White" {
		t.Errorf("MatchedTerms = %v", got.MatchedTerms)
	}
}

func TestScanText_StdinLines(t *testing.T) {
	useConfig(t, "")
	resetScanFlags(t)
	scanFlags.profile.keywords = []string{"Snape"}
	scanFlags.lines = true
	scanFlags.format = "csv"

	cmd, out, _ := newTestCmd("Snape kills Dumbledore\n\nthe weather is nice today\n")
	if err := scanText(cmd, nil); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "Snape kills Dumbledore,true,") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "the weather is nice today,false,0,low") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestScanText_ProfileFile(t *testing.T) {
	dir := useConfig(t, "")
	resetScanFlags(t)
	path := filepath.Join(dir, "profile.yaml")
	writeFile(t, path, "blockedKeywords: [Daenerys]\nsensitivity: high\n")
	scanFlags.profile.path = path

	cmd, out, _ := newTestCmd("")
	if err := scanText(cmd, []string{"Daenerys rides a dragon"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"isSpoiler": true`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestScanText_Errors(t *testing.T) {
	useConfig(t, "")

	tests := []struct {
		name  string
		setup func()
	}{
		{"bad format", func() { scanFlags.format = "xml" }},
		{"missing explicit profile", func() { scanFlags.profile.path = "/nonexistent/profile.yaml" }},
		{"bad sensitivity", func() { scanFlags.profile.sensitivity = "extreme" }},
		{"blank keyword", func() { scanFlags.profile.keywords = []string{"  "} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetScanFlags(t)
			tt.setup()
			cmd, _, _ := newTestCmd("")
			if err := scanText(cmd, []string{"some text to score"}); err == nil {
				t.Error("scanText() error = nil")
			}
		})
	}
}
