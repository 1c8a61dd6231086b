package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <table>",
	Short: "Restore one table from its snapshot artifact",
	Long: `Replace a table's entire content from its most recent snapshot:
the table is truncated (resetting its identity counter) and reloaded from
the decoded artifact.

Examples:
  workforce-ingest restore departments --config=config.yaml
  workforce-ingest restore hired_employees --config=config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	table := args[0]
	ctx := context.Background()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.close()

	count, err := application.backups.Restore(ctx, table)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	color.Green("Successfully restored %d records to %s.", count, table)
	return nil
}
