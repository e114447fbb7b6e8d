package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/energyaudit/auditmig/internal/drivers"
	"github.com/energyaudit/auditmig/internal/report"
	"github.com/energyaudit/auditmig/internal/target"
)

var schemaPrint bool

var schemaCmd = &cobra.Command{
	Use:   "schema [postgres-dsn]",
	Short: "Create the destination tables",
	Long:  `Create the six destination tables in PostgreSQL if they do not exist yet. With --print the DDL is shown instead.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaPrint {
			fmt.Print(target.SchemaSQL)
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dsn := cfg.ConnectionString()
		if len(args) == 1 {
			dsn = args[0]
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pg, err := drivers.OpenPostgres(ctx, dsn, 1)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := target.NewPostgresWriter(pg.Pool).EnsureSchema(ctx); err != nil {
			return err
		}
		fmt.Printf("Destination schema ready on %s\n", report.RedactDSN(dsn))
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaPrint, "print", false, "print the DDL without connecting")
	rootCmd.AddCommand(schemaCmd)
}
