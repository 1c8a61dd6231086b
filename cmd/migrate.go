package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Load the historical CSV data",
	Long: `Fetch the historical CSV snapshots from the configured S3 bucket and
append them to the store, one table at a time in dependency order
(departments, jobs, hired_employees). Historical data is trusted and skips
batch validation. A failure aborts the remaining tables; completed tables
stay loaded.

Examples:
  workforce-ingest migrate --config=config.yaml`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.close()

	completed, err := application.migrator.MigrateAll(ctx)
	if err != nil {
		for table, count := range completed {
			color.Yellow("  %s: %d rows (completed before failure)", table, count)
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	color.Green("Historical data migration completed successfully.")
	for table, count := range completed {
		fmt.Printf("  %s: %d rows\n", table, count)
	}
	return nil
}
