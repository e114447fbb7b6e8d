package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/discovery"
)

var (
	discoverSourceDir string
	discoverAll       bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the survey files a migration would pick up",
	Long: `Scan the source directory and list the numbered .db files in migration
order. Hidden files, backups and files whose name is not a number are
ignored; --all lists them too, with the reason.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if discoverSourceDir != "" {
			cfg.Source.Directory = discoverSourceDir
		}
		dir, err := cfg.SourceDir()
		if err != nil {
			return err
		}

		res, err := discovery.Scan(dir)
		if err != nil {
			return err
		}

		fmt.Printf("Source: %s\n\n", res.Dir)
		if len(res.Candidates) == 0 {
			fmt.Println("No survey files found.")
		}
		for _, c := range res.Candidates {
			fmt.Printf("  %-16s %10d bytes\n", c.Name, c.Size)
		}
		if discoverAll && len(res.Skipped) > 0 {
			fmt.Println("\nIgnored:")
			for _, s := range res.Skipped {
				fmt.Printf("  %-16s %s\n", s.Name, s.Reason)
			}
		}
		fmt.Printf("\n%d file(s) to migrate\n", len(res.Candidates))
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverSourceDir, "source-dir", "", "directory holding the survey files")
	discoverCmd.Flags().BoolVar(&discoverAll, "all", false, "also list ignored entries")
	rootCmd.AddCommand(discoverCmd)
}
