package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
)

// Service manages connections to the relational store
type Service struct {
	connectTimeout time.Duration
	logger         *logging.Logger
}

// NewService creates a new database service with default settings
func NewService() *Service {
	return &Service{
		connectTimeout: 30 * time.Second,
		logger:         logging.NewDefaultLogger(),
	}
}

// NewServiceWithLogger creates a new database service with a custom logger
func NewServiceWithLogger(logger *logging.Logger) *Service {
	return &Service{
		connectTimeout: 30 * time.Second,
		logger:         logger,
	}
}

// DSN builds the MySQL data source name for the given configuration.
// parseTime is required so TIMESTAMP columns scan into time.Time.
func DSN(c config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// Connect opens a pooled connection to the store and verifies it with a ping
func (s *Service) Connect(c config.DatabaseConfig) (*sql.DB, error) {
	start := time.Now()

	s.logger.WithFields(map[string]interface{}{
		"host":     c.Host,
		"database": c.Database,
		"port":     c.Port,
	}).Info("Connecting to database")

	db, err := sql.Open("mysql", DSN(c))
	if err != nil {
		return nil, apperrors.NewFault("failed to open database connection", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), s.connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewFault("failed to ping database", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"host":     c.Host,
		"database": c.Database,
		"duration": time.Since(start).String(),
	}).Info("Database connection established")

	return db, nil
}

// Close gracefully closes the database connection
func (s *Service) Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to close database connection")
		return apperrors.NewFault("failed to close database connection", err)
	}
	return nil
}
