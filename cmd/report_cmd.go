package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/report"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report <run.json>",
	Short: "Show or convert a saved run report",
	Long:  `Render a JSON run report written by "migrate --report", or convert it to another format with --output.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := report.ReadJSON(args[0])
		if err != nil {
			return err
		}
		if reportOutput == "" {
			fmt.Println(report.Render(rep))
			return nil
		}
		if err := report.Write(rep, reportOutput); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "convert to this file (.json, .xlsx or text)")
	rootCmd.AddCommand(reportCmd)
}
