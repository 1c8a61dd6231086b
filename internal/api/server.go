// Package api is the HTTP request boundary: routing, authentication, and the
// mapping from the error taxonomy to response statuses. All ingestion
// semantics live below it.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"workforce-ingest/internal/backup"
	"workforce-ingest/internal/logging"
	"workforce-ingest/internal/report"
	"workforce-ingest/internal/workforce"
)

// TransactionService is the validated real-time batch-insert path
type TransactionService interface {
	InsertBatch(ctx context.Context, batch *workforce.Batch) (workforce.InsertCounts, error)
}

// BackupService drives snapshot export and truncate-and-reload restore
type BackupService interface {
	BackupAll(ctx context.Context) (*backup.Result, error)
	Restore(ctx context.Context, table string) (int, error)
}

// MigrationService runs the historical CSV migration
type MigrationService interface {
	MigrateAll(ctx context.Context) (map[string]int, error)
}

// Server is the HTTP boundary of the ingestion engine
type Server struct {
	router       *mux.Router
	apiKey       string
	transactions TransactionService
	backups      BackupService
	migrations   MigrationService
	reports      report.Reporter
	logger       *logging.Logger
}

// NewServer wires the services into a routed HTTP server
func NewServer(apiKey string, transactions TransactionService, backups BackupService,
	migrations MigrationService, reports report.Reporter, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	s := &Server{
		router:       mux.NewRouter(),
		apiKey:       apiKey,
		transactions: transactions,
		backups:      backups,
		migrations:   migrations,
		reports:      reports,
		logger:       logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestLogging)

	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.requireAPIKey)

	v1.HandleFunc("/transactions/insert_new_data", s.handleInsertBatch).Methods(http.MethodPost)
	v1.HandleFunc("/backups/create_backup", s.handleCreateBackup).Methods(http.MethodPost)
	v1.HandleFunc("/backups/restore/{table}", s.handleRestore).Methods(http.MethodPost)
	v1.HandleFunc("/migrations/migrate_historic_data", s.handleMigrate).Methods(http.MethodPost)
	v1.HandleFunc("/reports/hired_per_quarter", s.handleHiredPerQuarter).Methods(http.MethodGet)
	v1.HandleFunc("/reports/departments_above_average", s.handleDepartmentsAboveAverage).Methods(http.MethodGet)
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until the context is canceled
func (s *Server) ListenAndServe(ctx context.Context, listen string) error {
	httpServer := &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("listen", listen).Info("HTTP server starting")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
