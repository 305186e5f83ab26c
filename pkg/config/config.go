package config

import (
	"time"

	"spoilerblock/shield/pkg/detection"
)

// Config is the root configuration structure for Shield.
// It contains the sections for scoring, live scanning, the user profile,
// the detection event log and telemetry.
type Config struct {
	// Detection configures the scoring engine.
	Detection DetectionConfig `yaml:"detection"`

	// Scanner configures segment enumeration and pass scheduling.
	Scanner ScannerConfig `yaml:"scanner"`

	// Profile locates the user's spoiler profile.
	Profile ProfileConfig `yaml:"profile"`

	// Events configures the detection event log including storage backend,
	// asynchronous recording and retention.
	Events EventsConfig `yaml:"events"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DetectionConfig contains scoring engine configuration.
type DetectionConfig struct {
	// Thresholds is the minimum raw score for a spoiler verdict per
	// sensitivity level.
	// Default: low=7, medium=5, high=3
	Thresholds detection.Thresholds `yaml:"thresholds"`

	// CacheSize is the number of memoized verdicts kept per engine.
	// A negative value disables the verdict cache.
	// Default: 4096
	CacheSize int `yaml:"cache_size"`
}

// ScannerConfig contains live scan configuration.
type ScannerConfig struct {
	// Debounce is the quiet period after a content change before a pass runs.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`

	// MinSegmentLength is the minimum trimmed length, in characters, of a
	// text segment worth scoring.
	// Default: 10
	MinSegmentLength int `yaml:"min_segment_length"`

	// ExcludedTags lists element names whose text is never scanned.
	// Default: script, style, noscript, template, head, iframe, svg, object
	ExcludedTags []string `yaml:"excluded_tags"`

	// PreviewLength caps the content preview stored with detection events.
	// Default: 500
	PreviewLength int `yaml:"preview_length"`

	// FragmentsDir is the directory whose HTML files make up the live page.
	// Default: "./page"
	FragmentsDir string `yaml:"fragments_dir"`

	// OutputPath receives the annotated page after every pass.
	// Empty disables writing.
	OutputPath string `yaml:"output_path"`
}

// ProfileConfig contains profile source configuration.
type ProfileConfig struct {
	// Path is the YAML or JSON profile file.
	// Default: "./profile.yaml"
	Path string `yaml:"path"`

	// Watch reloads the profile whenever the file changes.
	// Default: true
	Watch bool `yaml:"watch"`
}

// EventsConfig contains detection event log configuration.
type EventsConfig struct {
	// Enabled controls whether detection events are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains asynchronous recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains event retention configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite event storage configuration.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps the log in memory.
	// Default: "data/events.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite3" (cgo), "sqlite" (pure Go)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains event recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains event retention configuration.
type RetentionConfig struct {
	// MaxAge is how long events are kept. Zero keeps events forever.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age"`

	// MaxRecords caps the number of stored events. Zero means no cap.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a standard five-field cron expression.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete exports pruned events as JSON first.
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory that receives archives.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactContent masks attributes that may carry page text so that
	// spoilers never reach the logs.
	// Default: true
	RedactContent bool `yaml:"redact_content"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics and health endpoints bind to.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "shield"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "scanner"
	Subsystem string `yaml:"subsystem"`

	// PassDurationBuckets defines histogram buckets for pass duration (seconds).
	PassDurationBuckets []float64 `yaml:"pass_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for span exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service name in traces.
	// Default: "shield"
	ServiceName string `yaml:"service_name"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled serves liveness and readiness endpoints next to metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
