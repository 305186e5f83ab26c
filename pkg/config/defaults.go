package config

import (
	"slices"
	"time"

	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
)

// Default values for configuration fields.
const (
	// Detection defaults
	DefaultCacheSize = detection.DefaultCacheSize

	// Scanner defaults
	DefaultDebounce         = 500 * time.Millisecond
	DefaultMinSegmentLength = document.DefaultMinLength
	DefaultPreviewLength    = 500
	DefaultFragmentsDir     = "./page"

	// Profile defaults
	DefaultProfilePath  = "./profile.yaml"
	DefaultProfileWatch = true

	// Events defaults
	DefaultEventsEnabled        = true
	DefaultEventsBackend        = "sqlite"
	DefaultSQLitePath           = "data/events.db"
	DefaultSQLiteDriver         = "sqlite3"
	DefaultSQLiteMaxOpenConns   = 10
	DefaultSQLiteWALMode        = true
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultRecorderAsyncBuffer  = 1000
	DefaultRecorderWriteTimeout = 5 * time.Second
	DefaultRetentionMaxAge      = 30 * 24 * time.Hour
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionArchivePath = "data/archives/"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultLogRedactContent     = true
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "shield"
	DefaultMetricsSubsystem     = "scanner"
	DefaultTracingEnabled       = false
	DefaultTracingSampler       = "ratio"
	DefaultTracingSampleRatio   = 0.1
	DefaultTracingInsecure      = true
	DefaultTracingTimeout       = 10 * time.Second
	DefaultTracingServiceName   = "shield"
	DefaultHealthEnabled        = true
	DefaultHealthLivenessPath   = "/health"
	DefaultHealthReadinessPath  = "/ready"
	DefaultHealthCheckTimeout   = 5 * time.Second
)

// DefaultPassDurationBuckets are the histogram buckets for scan pass duration.
var DefaultPassDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Default returns a fully populated configuration. Boolean options that
// default to true are only set here, so files are decoded on top of it.
func Default() *Config {
	cfg := &Config{
		Profile: ProfileConfig{Watch: DefaultProfileWatch},
		Events: EventsConfig{
			Enabled: DefaultEventsEnabled,
			SQLite:  SQLiteConfig{WALMode: DefaultSQLiteWALMode},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactContent: DefaultLogRedactContent},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Enabled: DefaultTracingEnabled, Insecure: DefaultTracingInsecure},
			Health:  HealthConfig{Enabled: DefaultHealthEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func ApplyDefaults(cfg *Config) {
	// Detection defaults
	if cfg.Detection.Thresholds == (detection.Thresholds{}) {
		cfg.Detection.Thresholds = detection.DefaultThresholds()
	}
	if cfg.Detection.CacheSize == 0 {
		cfg.Detection.CacheSize = DefaultCacheSize
	}

	// Scanner defaults
	if cfg.Scanner.Debounce == 0 {
		cfg.Scanner.Debounce = DefaultDebounce
	}
	if cfg.Scanner.MinSegmentLength == 0 {
		cfg.Scanner.MinSegmentLength = DefaultMinSegmentLength
	}
	if cfg.Scanner.ExcludedTags == nil {
		cfg.Scanner.ExcludedTags = slices.Clone(document.DefaultExcludedTags)
	}
	if cfg.Scanner.PreviewLength == 0 {
		cfg.Scanner.PreviewLength = DefaultPreviewLength
	}
	if cfg.Scanner.FragmentsDir == "" {
		cfg.Scanner.FragmentsDir = DefaultFragmentsDir
	}

	// Profile defaults
	if cfg.Profile.Path == "" {
		cfg.Profile.Path = DefaultProfilePath
	}

	// Events defaults
	if cfg.Events.Backend == "" {
		cfg.Events.Backend = DefaultEventsBackend
	}
	if cfg.Events.SQLite.Path == "" {
		cfg.Events.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Events.SQLite.Driver == "" {
		cfg.Events.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Events.SQLite.MaxOpenConns == 0 {
		cfg.Events.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Events.SQLite.BusyTimeout == 0 {
		cfg.Events.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Events.Recorder.AsyncBuffer == 0 {
		cfg.Events.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if cfg.Events.Recorder.WriteTimeout == 0 {
		cfg.Events.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}
	if cfg.Events.Retention.MaxAge == 0 {
		cfg.Events.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Events.Retention.PruneSchedule == "" {
		cfg.Events.Retention.PruneSchedule = DefaultRetentionSchedule
	}
	if cfg.Events.Retention.ArchivePath == "" {
		cfg.Events.Retention.ArchivePath = DefaultRetentionArchivePath
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.PassDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.PassDurationBuckets = slices.Clone(DefaultPassDurationBuckets)
	}

	// Tracing defaults
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 && cfg.Telemetry.Tracing.Sampler == "ratio" {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}

	// Health defaults
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
