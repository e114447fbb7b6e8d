package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/engine"
)

var (
	prepareSourceDir string
	prepareScript    string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Create normalized working copies without migrating",
	Long: `Copy every survey file into <source>/migrations and run the normalization
script against the copies. The original files are never modified. Nothing is
written to the destination database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if prepareSourceDir != "" {
			cfg.Source.Directory = prepareSourceDir
		}
		if prepareScript != "" {
			cfg.Source.Script = prepareScript
		}

		logger, closer, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		eng := engine.New(cfg, logger)
		found, err := eng.Discover()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		prepared, failures := eng.Prepare(ctx, found.Dir, found.Paths())
		for _, p := range prepared {
			fmt.Printf("  OK    %s -> %s\n", filepath.Base(p.Source), p.Path)
		}
		for _, f := range failures {
			fmt.Printf("  FAIL  %s (%s): %v\n", filepath.Base(f.Source), f.Stage, f.Err)
		}
		fmt.Printf("\n%d prepared, %d failed\n", len(prepared), len(failures))
		return nil
	},
}

func init() {
	prepareCmd.Flags().StringVar(&prepareSourceDir, "source-dir", "", "directory holding the survey files")
	prepareCmd.Flags().StringVar(&prepareScript, "script", "", "normalization script")
	rootCmd.AddCommand(prepareCmd)
}
