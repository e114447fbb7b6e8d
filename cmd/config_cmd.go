package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/config"
	"github.com/energyaudit/auditmig/internal/report"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Create, view and validate the auditmig configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		cfg := config.Default()
		cfg.Target.ConnectionString = config.DefaultConnectionString
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sourceDir, err := cfg.SourceDir()
		if err != nil {
			sourceDir = fmt.Sprintf("(unresolved: %v)", err)
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		fmt.Printf("  Source:\n")
		fmt.Printf("    Directory:      %s\n", sourceDir)
		fmt.Printf("    Script:         %s\n", cfg.Source.Script)
		fmt.Println()
		fmt.Printf("  Target:\n")
		fmt.Printf("    Connection:     %s\n", report.RedactDSN(cfg.ConnectionString()))
		fmt.Printf("    Max Conns:      %d\n", cfg.Target.MaxConnections)
		fmt.Println()
		fmt.Printf("  Migration:\n")
		fmt.Printf("    On failure:     %s\n", cfg.Migration.OnFailure)
		fmt.Printf("    Collect:        %t\n", cfg.Migration.CollectViolations)
		fmt.Printf("    Validate:       %t\n", cfg.Migration.Validate)
		fmt.Printf("    Resume:         %t\n", cfg.Migration.Resume)
		fmt.Println()
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level:          %s\n", cfg.Logging.Level)
		fmt.Printf("    Directory:      %s\n", cfg.Logging.Directory)
		fmt.Printf("    Retention:      %d days\n", cfg.Logging.RetentionDays)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(configPath()); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Println("Configuration is valid.")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
