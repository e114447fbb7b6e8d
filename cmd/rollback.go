package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/config"
	"github.com/energyaudit/auditmig/internal/drivers"
	"github.com/energyaudit/auditmig/internal/lock"
	"github.com/energyaudit/auditmig/internal/rollback"
	"github.com/energyaudit/auditmig/internal/source"
	"github.com/energyaudit/auditmig/internal/state"
	"github.com/energyaudit/auditmig/internal/target"
)

var (
	rollbackDSN    string
	rollbackDryRun bool
	rollbackForce  bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <file>...",
	Short: "Remove migrated surveys from the destination",
	Long: `Delete the buildings of each named survey file, and every room, opening,
link, solar installation and utility that belongs to them, from the
destination database. File names are resolved against the source directory.
A rolled back file is migrated again by "migrate --resume".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, closer, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		dsn := cfg.ConnectionString()
		if rollbackDSN != "" {
			dsn = rollbackDSN
		}

		lockPath := config.ExpandHome(lock.DefaultPath)
		if err := lock.Acquire(lockPath); err != nil {
			return err
		}
		defer lock.Release(lockPath)

		st, err := state.Load("")
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pg, err := drivers.OpenPostgres(ctx, dsn, 1)
		if err != nil {
			return err
		}
		defer pg.Close()

		rb := rollback.New(target.NewPostgresWriter(pg.Pool), st, logger)
		opts := rollback.Options{DryRun: rollbackDryRun, Force: rollbackForce}

		for _, arg := range args {
			path, err := resolveSurvey(cfg, arg)
			if err != nil {
				return err
			}
			res, err := rollbackFile(ctx, rb, path, opts)
			if err != nil {
				return err
			}
			printRollback(res)
		}

		if rollbackDryRun {
			return nil
		}
		return st.Save("")
	},
}

func rollbackFile(ctx context.Context, rb *rollback.Rollback, path string, opts rollback.Options) (*rollback.Result, error) {
	src, err := drivers.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return rb.Execute(ctx, path, source.NewSQLiteReader(src.DB), opts)
}

// resolveSurvey finds a survey given as a path or as a name in the source
// directory.
func resolveSurvey(cfg *config.Config, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	dir, err := cfg.SourceDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, arg)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("survey %s not found in %s", arg, dir)
	}
	return path, nil
}

func printRollback(res *rollback.Result) {
	if res.DryRun {
		fmt.Printf("%s: would remove %d building(s) %v\n", res.File, len(res.Buildings), res.Buildings)
		return
	}
	fmt.Printf("%s: removed %d row(s) for %d building(s)\n", res.File, res.Total(), len(res.Buildings))
	tables := make([]string, 0, len(res.Deleted))
	for t := range res.Deleted {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Printf("  %-14s %d\n", t, res.Deleted[t])
	}
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackDSN, "dsn", "", "destination connection string")
	rollbackCmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "list the buildings without deleting")
	rollbackCmd.Flags().BoolVar(&rollbackForce, "force", false, "roll back files not recorded as migrated")
	rootCmd.AddCommand(rollbackCmd)
}
