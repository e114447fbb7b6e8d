package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/config"
	"github.com/energyaudit/auditmig/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "auditmig",
	Short: "Migrate energy audit surveys from SQLite into PostgreSQL",
	Long: `auditmig moves per-building energy audit surveys, kept as numbered SQLite
files, into one shared PostgreSQL database while keeping every reference
between buildings, rooms and openings intact.

Run "auditmig migrate" to migrate every survey in the source directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.auditmig/auditmig.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; default from config)")
}

// configPath returns the config file in use.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ExpandHome(config.DefaultPath)
}

// loadConfig loads the config file, falling back to defaults when it does
// not exist yet.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// setupLogger opens the daily log file. Console output goes to stderr so the
// summary on stdout stays readable.
func setupLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory, cfg.Logging.RetentionDays, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}
	return logger, closer, nil
}
