package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"workforce-ingest/internal/codec"
	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
	"workforce-ingest/internal/workforce"
)

// Service is the historical migrator: for each entity table, in load order,
// fetch the raw CSV snapshot, transform it through the tabular codec, and
// append it to the target table. Historical data is assumed authoritative, so
// no batch validation runs. Migration is atomic within one table's load but
// never across tables: a failure aborts the remaining tables and keeps the
// already-completed ones.
type Service struct {
	db        *sql.DB
	writer    *workforce.Writer
	source    Source
	prefix    string
	chunkSize int
	logger    *logging.Logger
}

// NewService creates the historical migrator
func NewService(db *sql.DB, writer *workforce.Writer, source Source, cfg config.MigrationConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 500
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "raw_data"
	}
	return &Service{
		db:        db,
		writer:    writer,
		source:    source,
		prefix:    prefix,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// MigrateAll migrates every entity table in order. The returned map holds the
// row counts of the tables that completed, including when a later table fails.
func (s *Service) MigrateAll(ctx context.Context) (map[string]int, error) {
	s.logger.Info("Starting historical data migration")
	completed := make(map[string]int)

	for _, table := range workforce.KnownTables() {
		count, err := s.migrateTable(ctx, table)
		if err != nil {
			// Surface the table's own error unwrapped so its detail and
			// resource name reach the caller intact.
			s.logger.WithFields(map[string]interface{}{
				"table": table,
			}).Error("Historical data migration aborted")
			return completed, err
		}
		completed[table] = count
	}

	s.logger.Info("Historical data migration completed")
	return completed, nil
}

// migrateTable fetches, transforms, and appends one table's historical rows
func (s *Service) migrateTable(ctx context.Context, table string) (int, error) {
	start := time.Now()
	key := s.prefix + "/" + table + ".csv"

	data, err := s.source.Fetch(ctx, key)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return 0, apperrors.NewNotFound(table,
				fmt.Sprintf("CSV file for table '%s' not found.", table), err)
		}
		return 0, err
	}

	// Migration appends without truncating. A non-empty target is legal but
	// worth flagging: duplicate ids will be rejected by the primary key and
	// reported as a constraint violation.
	if existing, err := s.countRows(ctx, table); err == nil && existing > 0 {
		s.logger.WithFields(map[string]interface{}{
			"table":         table,
			"existing_rows": existing,
		}).Warn("Migration target table is not empty")
	}

	count, err := s.loadTable(ctx, table, data)
	s.logger.LogMigrationTable(table, count, time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// loadTable parses the CSV payload and appends it in chunks inside one
// transaction. Chunking bounds statement size only; full-file semantics are
// preserved regardless of the chunk parameter.
func (s *Service) loadTable(ctx context.Context, table string, data []byte) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewFault("failed to begin transaction", err)
	}

	var total int
	switch table {
	case workforce.TableDepartments:
		rows, parseErr := codec.ParseDepartments(data)
		if parseErr != nil {
			tx.Rollback()
			return 0, apperrors.NewFault("failed to parse tabular data", parseErr)
		}
		for offset := 0; offset < len(rows); offset += s.chunkSize {
			chunk := rows[offset:min(offset+s.chunkSize, len(rows))]
			n, insertErr := s.writer.InsertDepartments(ctx, tx, chunk)
			if insertErr != nil {
				tx.Rollback()
				return 0, insertErr
			}
			total += n
		}

	case workforce.TableJobs:
		rows, parseErr := codec.ParseJobs(data)
		if parseErr != nil {
			tx.Rollback()
			return 0, apperrors.NewFault("failed to parse tabular data", parseErr)
		}
		for offset := 0; offset < len(rows); offset += s.chunkSize {
			chunk := rows[offset:min(offset+s.chunkSize, len(rows))]
			n, insertErr := s.writer.InsertJobs(ctx, tx, chunk)
			if insertErr != nil {
				tx.Rollback()
				return 0, insertErr
			}
			total += n
		}

	case workforce.TableHiredEmployees:
		rows, parseErr := codec.ParseHiredEmployees(data)
		if parseErr != nil {
			tx.Rollback()
			return 0, apperrors.NewFault("failed to parse tabular data", parseErr)
		}
		for offset := 0; offset < len(rows); offset += s.chunkSize {
			chunk := rows[offset:min(offset+s.chunkSize, len(rows))]
			n, insertErr := s.writer.InsertHiredEmployees(ctx, tx, chunk)
			if insertErr != nil {
				tx.Rollback()
				return 0, insertErr
			}
			total += n
		}

	default:
		tx.Rollback()
		return 0, apperrors.NewUnrecognized(table, fmt.Sprintf("Table '%s' is not recognized.", table))
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewFault("failed to commit migration transaction", err)
	}
	return total, nil
}

func (s *Service) countRows(ctx context.Context, table string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	return count, err
}
