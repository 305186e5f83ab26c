package config

import (
	"slices"
	"testing"
	"time"

	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
	if cfg.Detection.Thresholds != detection.DefaultThresholds() {
		t.Errorf("expected default thresholds, got %+v", cfg.Detection.Thresholds)
	}
	if cfg.Detection.CacheSize != DefaultCacheSize {
		t.Errorf("expected cache size %d, got %d", DefaultCacheSize, cfg.Detection.CacheSize)
	}
	if cfg.Scanner.Debounce != DefaultDebounce {
		t.Errorf("expected debounce %v, got %v", DefaultDebounce, cfg.Scanner.Debounce)
	}
	if !slices.Equal(cfg.Scanner.ExcludedTags, document.DefaultExcludedTags) {
		t.Errorf("expected excluded tags %v, got %v", document.DefaultExcludedTags, cfg.Scanner.ExcludedTags)
	}
	if !cfg.Profile.Watch {
		t.Error("expected profile watch to default to true")
	}
	if !cfg.Events.Enabled || !cfg.Events.SQLite.WALMode {
		t.Error("expected events and WAL mode to default to true")
	}
	if !cfg.Telemetry.Logging.RedactContent {
		t.Error("expected content redaction to default to true")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("expected tracing to default to false")
	}
}

func TestDefault_ExcludedTagsAreCopied(t *testing.T) {
	cfg := Default()
	cfg.Scanner.ExcludedTags[0] = "changed"

	if document.DefaultExcludedTags[0] == "changed" {
		t.Fatal("mutating the config changed the package default")
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Scanner.MinSegmentLength != DefaultMinSegmentLength {
					t.Errorf("expected min segment length %d, got %d", DefaultMinSegmentLength, cfg.Scanner.MinSegmentLength)
				}
				if cfg.Scanner.PreviewLength != DefaultPreviewLength {
					t.Errorf("expected preview length %d, got %d", DefaultPreviewLength, cfg.Scanner.PreviewLength)
				}
				if cfg.Events.Backend != DefaultEventsBackend {
					t.Errorf("expected backend %q, got %q", DefaultEventsBackend, cfg.Events.Backend)
				}
				if cfg.Events.SQLite.Driver != DefaultSQLiteDriver {
					t.Errorf("expected driver %q, got %q", DefaultSQLiteDriver, cfg.Events.SQLite.Driver)
				}
				if cfg.Events.Retention.MaxAge != DefaultRetentionMaxAge {
					t.Errorf("expected max age %v, got %v", DefaultRetentionMaxAge, cfg.Events.Retention.MaxAge)
				}
				if cfg.Events.Retention.PruneSchedule != DefaultRetentionSchedule {
					t.Errorf("expected schedule %q, got %q", DefaultRetentionSchedule, cfg.Events.Retention.PruneSchedule)
				}
				if cfg.Telemetry.Logging.Level != DefaultLogLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLogLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Telemetry.Tracing.SampleRatio != DefaultTracingSampleRatio {
					t.Errorf("expected sample ratio %v, got %v", DefaultTracingSampleRatio, cfg.Telemetry.Tracing.SampleRatio)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Detection: DetectionConfig{Thresholds: detection.Thresholds{Low: 9, Medium: 6, High: 2}},
				Scanner: ScannerConfig{
					Debounce:     50 * time.Millisecond,
					ExcludedTags: []string{},
					FragmentsDir: "/srv/page",
				},
				Events: EventsConfig{Backend: "memory"},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Detection.Thresholds.Low != 9 {
					t.Error("existing thresholds were overwritten")
				}
				if cfg.Scanner.Debounce != 50*time.Millisecond {
					t.Error("existing debounce was overwritten")
				}
				if len(cfg.Scanner.ExcludedTags) != 0 {
					t.Error("explicitly empty excluded tags were replaced")
				}
				if cfg.Scanner.FragmentsDir != "/srv/page" {
					t.Error("existing fragments dir was overwritten")
				}
				if cfg.Events.Backend != "memory" {
					t.Error("existing backend was overwritten")
				}
			},
		},
		{
			name: "never sampler keeps zero ratio",
			input: Config{
				Telemetry: TelemetryConfig{Tracing: TracingConfig{Sampler: "never"}},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Telemetry.Tracing.SampleRatio != 0 {
					t.Errorf("expected zero ratio, got %v", cfg.Telemetry.Tracing.SampleRatio)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}
