package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHIELD_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default, then validated. Environment
// variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults without validating.
// Unknown keys are rejected. Empty input yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SHIELD_SECTION_FIELD (e.g., SHIELD_SCANNER_DEBOUNCE) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Load variables from .env files, without overwriting the environment
// 2. Load YAML from file on top of the defaults
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path skips step 2.
func LoadConfigWithEnvOverrides(path string, envFiles ...string) (*Config, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files, or ".env" when none are named.
// Missing files are ignored. Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %q: %w", f, err)
		}
	}
	return nil
}

// envOverrides collects parse failures so that a malformed variable is
// reported instead of silently ignored.
type envOverrides struct {
	errs []FieldError
}

func (o *envOverrides) str(name string, dst *string) {
	if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
		*dst = val
	}
}

func (o *envOverrides) list(name string, dst *[]string) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (o *envOverrides) boolean(name string, dst *bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = b
}

func (o *envOverrides) integer(name string, dst *int) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = i
}

func (o *envOverrides) int64(name string, dst *int64) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = i
}

func (o *envOverrides) float(name string, dst *float64) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = f
}

func (o *envOverrides) duration(name string, dst *time.Duration) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = d
}

func (o *envOverrides) fail(name, val string, err error) {
	o.errs = append(o.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: %v", val, err),
	})
}

// applyEnvOverrides applies SHIELD_SECTION_FIELD variables to cfg.
func applyEnvOverrides(cfg *Config) error {
	o := &envOverrides{}

	// Detection overrides
	o.integer("DETECTION_THRESHOLDS_LOW", &cfg.Detection.Thresholds.Low)
	o.integer("DETECTION_THRESHOLDS_MEDIUM", &cfg.Detection.Thresholds.Medium)
	o.integer("DETECTION_THRESHOLDS_HIGH", &cfg.Detection.Thresholds.High)
	o.integer("DETECTION_CACHE_SIZE", &cfg.Detection.CacheSize)

	// Scanner overrides
	o.duration("SCANNER_DEBOUNCE", &cfg.Scanner.Debounce)
	o.integer("SCANNER_MIN_SEGMENT_LENGTH", &cfg.Scanner.MinSegmentLength)
	o.list("SCANNER_EXCLUDED_TAGS", &cfg.Scanner.ExcludedTags)
	o.integer("SCANNER_PREVIEW_LENGTH", &cfg.Scanner.PreviewLength)
	o.str("SCANNER_FRAGMENTS_DIR", &cfg.Scanner.FragmentsDir)
	o.str("SCANNER_OUTPUT_PATH", &cfg.Scanner.OutputPath)

	// Profile overrides
	o.str("PROFILE_PATH", &cfg.Profile.Path)
	o.boolean("PROFILE_WATCH", &cfg.Profile.Watch)

	// Events overrides
	o.boolean("EVENTS_ENABLED", &cfg.Events.Enabled)
	o.str("EVENTS_BACKEND", &cfg.Events.Backend)
	o.str("EVENTS_SQLITE_PATH", &cfg.Events.SQLite.Path)
	o.str("EVENTS_SQLITE_DRIVER", &cfg.Events.SQLite.Driver)
	o.integer("EVENTS_SQLITE_MAX_OPEN_CONNS", &cfg.Events.SQLite.MaxOpenConns)
	o.boolean("EVENTS_SQLITE_WAL_MODE", &cfg.Events.SQLite.WALMode)
	o.duration("EVENTS_SQLITE_BUSY_TIMEOUT", &cfg.Events.SQLite.BusyTimeout)
	o.integer("EVENTS_RECORDER_ASYNC_BUFFER", &cfg.Events.Recorder.AsyncBuffer)
	o.duration("EVENTS_RECORDER_WRITE_TIMEOUT", &cfg.Events.Recorder.WriteTimeout)
	o.duration("EVENTS_RETENTION_MAX_AGE", &cfg.Events.Retention.MaxAge)
	o.int64("EVENTS_RETENTION_MAX_RECORDS", &cfg.Events.Retention.MaxRecords)
	o.str("EVENTS_RETENTION_PRUNE_SCHEDULE", &cfg.Events.Retention.PruneSchedule)
	o.boolean("EVENTS_RETENTION_ARCHIVE_BEFORE_DELETE", &cfg.Events.Retention.ArchiveBeforeDelete)
	o.str("EVENTS_RETENTION_ARCHIVE_PATH", &cfg.Events.Retention.ArchivePath)

	// Telemetry overrides
	o.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	o.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	o.boolean("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	o.boolean("TELEMETRY_LOGGING_REDACT_CONTENT", &cfg.Telemetry.Logging.RedactContent)
	o.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	o.str("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	o.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	o.str("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	o.str("TELEMETRY_METRICS_SUBSYSTEM", &cfg.Telemetry.Metrics.Subsystem)
	o.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	o.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	o.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	o.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	o.boolean("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	o.str("TELEMETRY_TRACING_SERVICE_NAME", &cfg.Telemetry.Tracing.ServiceName)
	o.boolean("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)

	if len(o.errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %w", ValidationError{Errors: o.errs})
	}
	return nil
}
