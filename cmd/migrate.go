package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/config"
	"github.com/energyaudit/auditmig/internal/drivers"
	"github.com/energyaudit/auditmig/internal/engine"
	"github.com/energyaudit/auditmig/internal/lock"
	"github.com/energyaudit/auditmig/internal/prompt"
	"github.com/energyaudit/auditmig/internal/report"
	"github.com/energyaudit/auditmig/internal/target"
)

var (
	migrateSourceDir         string
	migrateScript            string
	migrateYes               bool
	migrateAbortOnFailure    bool
	migrateCollectViolations bool
	migrateResume            bool
	migrateValidate          bool
	migrateReport            string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [postgres-dsn]",
	Short: "Migrate every survey file into PostgreSQL",
	Long: `Discover the numbered survey files in the source directory, prepare a
normalized working copy of each, and migrate them one by one into the
destination database. Each file is migrated in a single transaction.

Without a DSN argument the destination comes from $AUDITMIG_DATABASE_URL,
the config file, or the local development default.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateYes && migrateAbortOnFailure {
			return fmt.Errorf("--yes and --abort-on-failure are mutually exclusive")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyMigrateFlags(cmd, cfg)

		logger, closer, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		dsn := cfg.ConnectionString()
		if len(args) == 1 {
			dsn = args[0]
		}
		if dsn == config.DefaultConnectionString {
			logger.Warn("using the built-in development connection string", "dsn", report.RedactDSN(dsn))
		}

		eng := engine.New(cfg, logger)
		eng.Destination = dsn
		eng.Prompter = prompt.New(os.Stdin, os.Stdout)
		eng.FileCallback = func(fr report.FileReport) {
			fmt.Printf("  %-16s %s\n", fr.Name, fr.Outcome)
		}

		// Fail before touching the destination when there is nothing to read.
		dir, err := eng.SourceDir()
		if err != nil {
			return err
		}

		lockPath := config.ExpandHome(lock.DefaultPath)
		if err := lock.Acquire(lockPath); err != nil {
			return err
		}
		defer lock.Release(lockPath)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Connecting to %s...\n", report.RedactDSN(dsn))
		pg, err := drivers.OpenPostgres(ctx, dsn, int32(cfg.Target.MaxConnections))
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := target.NewPostgresWriter(pg.Pool).EnsureSchema(ctx); err != nil {
			return err
		}

		fmt.Printf("Migrating surveys from %s\n", dir)
		rep, runErr := eng.Run(ctx, pg)
		if rep == nil {
			return runErr
		}

		fmt.Println()
		fmt.Println(report.Render(rep))

		if migrateReport != "" {
			if err := report.Write(rep, migrateReport); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Printf("Report written to %s\n", migrateReport)
		}

		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("migration interrupted")
		}
		return runErr
	},
}

// applyMigrateFlags overlays the flags the user set on cfg.
func applyMigrateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source-dir") {
		cfg.Source.Directory = migrateSourceDir
	}
	if flags.Changed("script") {
		cfg.Source.Script = migrateScript
	}
	if migrateYes {
		cfg.Migration.OnFailure = config.OnFailureContinue
	}
	if migrateAbortOnFailure {
		cfg.Migration.OnFailure = config.OnFailureAbort
	}
	if flags.Changed("collect-violations") {
		cfg.Migration.CollectViolations = migrateCollectViolations
	}
	if flags.Changed("resume") {
		cfg.Migration.Resume = migrateResume
	}
	if flags.Changed("validate") {
		cfg.Migration.Validate = migrateValidate
	}
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSourceDir, "source-dir", "", "directory holding the survey files (default: <Documents>/RilieviEnergetici)")
	migrateCmd.Flags().StringVar(&migrateScript, "script", "", "normalization script run on each working copy (default: ./migrations/migrate_sqlite.sql)")
	migrateCmd.Flags().BoolVarP(&migrateYes, "yes", "y", false, "continue with the remaining files after a failure without asking")
	migrateCmd.Flags().BoolVar(&migrateAbortOnFailure, "abort-on-failure", false, "stop at the first file that fails")
	migrateCmd.Flags().BoolVar(&migrateCollectViolations, "collect-violations", false, "report every invalid value of a step instead of the first")
	migrateCmd.Flags().BoolVar(&migrateResume, "resume", false, "skip files already migrated by an earlier run")
	migrateCmd.Flags().BoolVar(&migrateValidate, "validate", false, "compare row counts after each file")
	migrateCmd.Flags().StringVarP(&migrateReport, "report", "o", "", "write the run report (.json, .xlsx or text)")
	rootCmd.AddCommand(migrateCmd)
}
