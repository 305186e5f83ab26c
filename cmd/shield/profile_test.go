package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateProfiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, good, "blockedKeywords: [Walter White, Jesse]\ncontextTerms: [Breaking Bad]\nsensitivity: high\n")
	writeFile(t, bad, "blockedKeywords: [Walter White]\nsensitivity: extreme\n")

	cmd, out, _ := newTestCmd("")
	if err := validateProfiles(cmd, []string{good}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "2 blocked keywords, 1 context terms, sensitivity high") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := validateProfiles(cmd, []string{good, bad}); err == nil {
		t.Error("invalid profile accepted")
	}
	if !strings.Contains(out.String(), "✗ "+bad) {
		t.Errorf("output = %q", out.String())
	}
}

func TestShowProfile(t *testing.T) {
	dir := useConfig(t, "")
	path := filepath.Join(dir, "profile.yaml")
	writeFile(t, path, "blockedKeywords: [Walter White]\ncontextTerms: [Breaking Bad]\n")

	orig := profileShowFlags
	t.Cleanup(func() { profileShowFlags = orig })
	profileShowFlags = profileFlags{
		path:        path,
		keywords:    []string{"walter white", "Jesse"},
		sensitivity: "low",
	}

	cmd, out, _ := newTestCmd("")
	if err := showProfile(cmd, nil); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"- Walter White", "- Jesse", "- Breaking Bad", "sensitivity: low"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "walter white") {
		t.Errorf("duplicate keyword not removed:\n%s", got)
	}
}
