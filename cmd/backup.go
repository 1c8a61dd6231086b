package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot every table to the artifact store",
	Long: `Export each workforce table as a binary snapshot artifact to the
configured store (local, s3, gcs, or azure). Empty tables are skipped.

Examples:
  # Snapshot to the local filesystem
  workforce-ingest backup --config=config.yaml

  # Quiet run for cron
  workforce-ingest backup --config=config.yaml --quiet`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.close()

	result, err := application.backups.BackupAll(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	color.Green("Database backup completed successfully!")
	for table, count := range result.Tables {
		fmt.Printf("  %s: %d rows\n", table, count)
	}
	for _, table := range result.Skipped {
		color.Yellow("  %s: empty, skipped", table)
	}
	return nil
}
