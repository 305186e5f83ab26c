package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"spoilerblock/shield/pkg/cli"
	"spoilerblock/shield/pkg/config"
	"spoilerblock/shield/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	envFiles []string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "shield",
	Short: "Shield - live spoiler detection and suppression",
	Long: `Shield scans page text for spoilers about the shows and books you care
about and blurs them until you choose to reveal them.

It scores every text segment against your spoiler profile (blocked keywords,
context terms and a sensitivity level), suppresses the segments that score as
spoilers, keeps watching the page as new content arrives and records every
detection in a queryable log.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig reads the config file with environment overrides. A missing
// default config file is not an error; shield then runs on defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !configFlagSet(cmd) {
		path = ""
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path, envFiles...)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func configFlagSet(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup("config")
	return f != nil && f.Changed
}

// setupLogging builds the process logger from cfg and makes it the default.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactContent: cfg.Telemetry.Logging.RedactContent,
		Writer:        os.Stderr,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// setup is the common prologue of commands that need configuration.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
