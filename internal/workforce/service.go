package workforce

import (
	"context"
	"database/sql"
	"time"

	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
)

// Batch size bounds, checked before any store interaction.
const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

// Service is the transactional batch-insert path: one unit of work per call,
// bound to a single store transaction. Validation reads happen inside the same
// transaction as the subsequent writes.
type Service struct {
	db        *sql.DB
	validator *Validator
	writer    *Writer
	logger    *logging.Logger
}

// NewService creates the batch-insert service
func NewService(db *sql.DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Service{
		db:        db,
		validator: NewValidator(logger),
		writer:    NewWriter(logger),
		logger:    logger,
	}
}

// Writer exposes the bulk writer for the restore and migration paths
func (s *Service) Writer() *Writer {
	return s.writer
}

// InsertBatch validates and atomically inserts a mixed batch. Size bounds are
// enforced first, without touching the store. Any failure after the
// transaction opens rolls every step back.
func (s *Service) InsertBatch(ctx context.Context, batch *Batch) (InsertCounts, error) {
	var counts InsertCounts
	start := time.Now()

	total := batch.Size()
	if total < MinBatchSize || total > MaxBatchSize {
		return counts, apperrors.NewMalformedBatch("Batch size must be between 1 and 1000 rows.")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, apperrors.NewFault("failed to begin transaction", err)
	}

	existingDepartmentIDs, err := scanIDs(ctx, tx, TableDepartments)
	if err != nil {
		tx.Rollback()
		return counts, err
	}
	existingJobIDs, err := scanIDs(ctx, tx, TableJobs)
	if err != nil {
		tx.Rollback()
		return counts, err
	}

	if err := s.validator.Validate(existingDepartmentIDs, existingJobIDs, batch); err != nil {
		tx.Rollback()
		return counts, err
	}

	counts, err = s.writer.Write(ctx, tx, batch)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			s.logger.WithField("error", rollbackErr.Error()).Error("Failed to rollback transaction")
		}
		s.logger.LogBatchInsert(len(batch.Departments), len(batch.Jobs), len(batch.HiredEmployees), time.Since(start), err)
		return InsertCounts{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.LogBatchInsert(len(batch.Departments), len(batch.Jobs), len(batch.HiredEmployees), time.Since(start), err)
		return InsertCounts{}, apperrors.NewFault("failed to commit transaction", err)
	}

	s.logger.LogBatchInsert(counts.Departments, counts.Jobs, counts.HiredEmployees, time.Since(start), nil)
	return counts, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanIDs reads every identifier of a table, used by validation to resolve
// references against persisted state.
func scanIDs(ctx context.Context, q querier, table string) (IDSet, error) {
	rows, err := q.QueryContext(ctx, "SELECT id FROM "+table)
	if err != nil {
		return nil, apperrors.NewFault("failed to scan existing ids", err).WithContext("table", table)
	}
	defer rows.Close()

	ids := make(IDSet)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewFault("failed to scan id row", err).WithContext("table", table)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewFault("failed to iterate id rows", err).WithContext("table", table)
	}

	return ids, nil
}
