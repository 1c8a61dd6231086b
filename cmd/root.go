package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"workforce-ingest/internal/backup"
	"workforce-ingest/internal/config"
	"workforce-ingest/internal/database"
	"workforce-ingest/internal/logging"
	"workforce-ingest/internal/migration"
	"workforce-ingest/internal/report"
	"workforce-ingest/internal/workforce"
)

var cfgFile string

// CLI flag variables
var (
	verbose bool
	quiet   bool
	logFile string
	noColor bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "workforce-ingest",
	Short: "Workforce records ingestion engine",
	Long: `Workforce Ingest loads workforce records (departments, jobs, hired
employees) into a MySQL store through three paths: a validated real-time
batch API, a historical CSV migration from object storage, and binary
snapshot backup/restore.

Examples:
  # Run the HTTP API
  workforce-ingest serve --config=config.yaml

  # Snapshot every table to the configured artifact store
  workforce-ingest backup --config=config.yaml

  # Restore one table from its snapshot
  workforce-ingest restore hired_employees --config=config.yaml

  # Load the historical CSVs
  workforce-ingest migrate --config=config.yaml`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file in addition to stdout")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")

	rootCmd.AddCommand(createVersionCommand())
}

// app holds the wired services behind every subcommand
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	dbService *database.Service
	db        *sql.DB
	workforce *workforce.Service
	backups   *backup.Service
	migrator  *migration.Service
	reports   *report.Service
}

// newApp loads configuration, connects to the store, and wires every service
func newApp(ctx context.Context) (*app, error) {
	if verbose && quiet {
		return nil, fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}

	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	level := logging.LogLevel(cfg.Logging.Level)
	if verbose {
		level = logging.LogLevelVerbose
	}
	if quiet {
		level = logging.LogLevelQuiet
	}
	file := cfg.Logging.LogFile
	if logFile != "" {
		file = logFile
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:   level,
		Format:  cfg.Logging.Format,
		LogFile: file,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbService := database.NewServiceWithLogger(logger)
	db, err := dbService.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	workforceService := workforce.NewService(db, logger)

	store, err := backup.NewArtifactStore(ctx, cfg.Artifacts)
	if err != nil {
		dbService.Close(db)
		return nil, err
	}
	pipeline, err := backup.NewPipeline(cfg.Artifacts.Compression, cfg.Artifacts.Encryption)
	if err != nil {
		dbService.Close(db)
		return nil, err
	}
	backupService := backup.NewService(db, workforceService.Writer(), store, pipeline, logger)

	source, err := migration.NewS3Source(cfg.Migration)
	if err != nil {
		dbService.Close(db)
		return nil, err
	}
	migrator := migration.NewService(db, workforceService.Writer(), source, cfg.Migration, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		dbService: dbService,
		db:        db,
		workforce: workforceService,
		backups:   backupService,
		migrator:  migrator,
		reports:   report.NewService(db, logger),
	}, nil
}

// close releases the application's database connection
func (a *app) close() {
	a.dbService.Close(a.db)
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("workforce-ingest version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
		},
	}
}
