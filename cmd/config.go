package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"workforce-ingest/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate a sample configuration file",
	Long: `Generate a sample configuration file that can be used with the
--config flag. Redirect the output to a file and adjust it for your
environment:

  workforce-ingest config > config.yaml`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	sample := config.Config{
		Server: config.ServerConfig{
			Listen: ":8000",
			APIKey: "change-me",
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			Username: "root",
			Password: "",
			Database: "workforce",
		},
		Artifacts: config.ArtifactsConfig{
			Provider: "local",
			Local:    config.LocalArtifacts{BasePath: "backups"},
			S3: config.S3Artifacts{
				Bucket: "workforce-backups",
				Region: "us-east-1",
			},
			Compression: config.CompressionConfig{Algorithm: "gzip"},
			Encryption:  config.EncryptionConfig{Enabled: false},
		},
		Migration: config.MigrationConfig{
			Bucket:    "workforce-raw",
			Region:    "us-east-1",
			Prefix:    "raw_data",
			ChunkSize: 500,
		},
		Logging: config.LoggingConfig{
			Level:  "normal",
			Format: "text",
		},
	}

	out, err := yaml.Marshal(&sample)
	if err != nil {
		return fmt.Errorf("failed to render sample configuration: %w", err)
	}

	fmt.Println("# workforce-ingest configuration")
	fmt.Println("# Every key can also be set via WFI_* environment variables,")
	fmt.Println("# e.g. WFI_DATABASE_PASSWORD or WFI_SERVER_API_KEY.")
	fmt.Print(string(out))
	return nil
}
