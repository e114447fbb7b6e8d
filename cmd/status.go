package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/config"
	"github.com/energyaudit/auditmig/internal/lock"
	"github.com/energyaudit/auditmig/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome recorded for each survey file",
	RunE: func(cmd *cobra.Command, args []string) error {
		held, pid, err := lock.IsHeld(config.ExpandHome(lock.DefaultPath))
		if err != nil {
			return fmt.Errorf("checking lock: %w", err)
		}
		if held {
			fmt.Printf("A migration is running (PID %d)\n\n", pid)
		}

		st, err := state.Load("")
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}

		names := st.Names()
		if len(names) == 0 {
			fmt.Println("No migration has run yet.")
			return nil
		}

		fmt.Printf("Last run: %s (%s)\n\n", st.LastRunID, st.LastUpdated.Format("2006-01-02 15:04"))
		for _, name := range names {
			fs := st.Files[name]
			line := fmt.Sprintf("  %-16s %-15s %s", name, fs.Status, fs.UpdatedAt.Format("2006-01-02 15:04"))
			if fs.Status == state.StatusMigrated {
				line += fmt.Sprintf("  %d rows", fs.Rows)
				if fs.Dropped > 0 {
					line += fmt.Sprintf(", %d links dropped", fs.Dropped)
				}
			}
			fmt.Println(line)
			if fs.Error != "" {
				fmt.Printf("      %s\n", fs.Error)
			}
		}

		counts := st.Counts()
		fmt.Printf("\n%d migrated, %d failed, %d failed preparation, %d rolled back, %d not attempted\n",
			counts[state.StatusMigrated], counts[state.StatusFailed], counts[state.StatusPrepareFailed],
			counts[state.StatusRolledBack], counts[state.StatusNotAttempted])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
