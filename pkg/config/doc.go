// Package config provides configuration management for Shield.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with .env and environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SHIELD_SECTION_FIELD.
// For example:
//
//   - SHIELD_SCANNER_DEBOUNCE overrides scanner.debounce
//   - SHIELD_EVENTS_SQLITE_PATH overrides events.sqlite.path
//   - SHIELD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Variables may also come from a .env file in the working directory.
// Variables already present in the process environment are never replaced
// by the .env file.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// There is no process-wide instance: commands load a Config once and pass
// it down explicitly.
//
// # Validation
//
// Validation collects every problem before failing:
//
//	configuration validation failed with 2 errors:
//	  - scanner.min_segment_length: minimum segment length must be at least 1
//	  - events.sqlite.driver: invalid driver "pg": must be 'sqlite3' or 'sqlite'
//
// # Example Configuration
//
//	scanner:
//	  debounce: 500ms
//	  fragments_dir: ./page
//	  output_path: ./out/page.html
//
//	profile:
//	  path: ./profile.yaml
//	  watch: true
//
//	events:
//	  backend: sqlite
//	  sqlite:
//	    path: data/events.db
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
