package main

import (
	"testing"
)

func TestLoadConfig(t *testing.T) {
	origLevel := logLevel
	t.Cleanup(func() { logLevel = origLevel })

	tests := []struct {
		name      string
		yaml      string
		level     string
		wantLevel string
		wantErr   bool
	}{
		{name: "missing default file uses defaults", wantLevel: "info"},
		{name: "file values", yaml: "telemetry:\n  logging:\n    level: warn\n", wantLevel: "warn"},
		{name: "flag overrides file", yaml: "telemetry:\n  logging:\n    level: warn\n", level: "debug", wantLevel: "debug"},
		{name: "invalid flag level", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, tt.yaml)
			logLevel = tt.level

			first, err := loadConfig(nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if first.Telemetry.Logging.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", first.Telemetry.Logging.Level, tt.wantLevel)
			}

			// Every call yields its own instance.
			second, err := loadConfig(nil)
			if err != nil {
				t.Fatal(err)
			}
			if first == second {
				t.Error("loadConfig() returned a shared instance")
			}
		})
	}
}
