package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"workforce-ingest/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion HTTP API",
	Long: `Run the HTTP API that exposes batch insert, backup, restore,
historical migration, and the hiring reports. Routes under /api/v1 require
the configured X-API-KEY header.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.close()

	if application.cfg.Server.APIKey == "" {
		return fmt.Errorf("server.api_key is required to run the API")
	}

	server := api.NewServer(
		application.cfg.Server.APIKey,
		application.workforce,
		application.backups,
		application.migrator,
		application.reports,
		application.logger,
	)

	if err := server.ListenAndServe(ctx, application.cfg.Server.Listen); err != nil && err != http.ErrServerClosed {
		return err
	}
	application.logger.Info("Server stopped")
	return nil
}
