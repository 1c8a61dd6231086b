package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"workforce-ingest/internal/codec"
	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
	"workforce-ingest/internal/workforce"
)

// Service orchestrates per-table snapshot export and truncate-and-reload
// restore. Restore trusts the backup's own prior validation; no batch
// validation runs on the decoded rows.
type Service struct {
	db       *sql.DB
	writer   *workforce.Writer
	store    ArtifactStore
	pipeline *Pipeline
	logger   *logging.Logger
}

// NewService creates the backup/restore orchestrator
func NewService(db *sql.DB, writer *workforce.Writer, store ArtifactStore, pipeline *Pipeline, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Service{
		db:       db,
		writer:   writer,
		store:    store,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Result reports what a backup run produced
type Result struct {
	Tables  map[string]int `json:"tables"`
	Skipped []string       `json:"skipped"`
}

// BackupAll exports every entity table to its snapshot artifact. Tables with
// zero rows are skipped and logged, not treated as errors.
func (s *Service) BackupAll(ctx context.Context) (*Result, error) {
	s.logger.Info("Starting database backup")
	result := &Result{Tables: make(map[string]int)}

	for _, table := range workforce.KnownTables() {
		count, err := s.backupTable(ctx, table)
		if err != nil {
			return nil, apperrors.Wrap(err, fmt.Sprintf("backup of table %s failed", table))
		}
		if count == 0 {
			s.logger.WithField("table", table).Info("No records found, skipping backup")
			result.Skipped = append(result.Skipped, table)
			continue
		}
		result.Tables[table] = count
	}

	s.logger.Info("Database backup completed")
	return result, nil
}

// backupTable reads all rows of one table, encodes them, and persists the
// artifact. Returns the number of rows exported, zero meaning skipped.
func (s *Service) backupTable(ctx context.Context, table string) (int, error) {
	var buf bytes.Buffer
	var count int

	switch table {
	case workforce.TableDepartments:
		rows, err := s.readDepartments(ctx)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, nil
		}
		if err := codec.EncodeDepartments(&buf, rows); err != nil {
			return 0, apperrors.NewFault("failed to encode snapshot", err)
		}
		count = len(rows)

	case workforce.TableJobs:
		rows, err := s.readJobs(ctx)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, nil
		}
		if err := codec.EncodeJobs(&buf, rows); err != nil {
			return 0, apperrors.NewFault("failed to encode snapshot", err)
		}
		count = len(rows)

	case workforce.TableHiredEmployees:
		rows, err := s.readHiredEmployees(ctx)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, nil
		}
		if err := codec.EncodeHiredEmployees(&buf, rows); err != nil {
			return 0, apperrors.NewFault("failed to encode snapshot", err)
		}
		count = len(rows)

	default:
		return 0, apperrors.NewUnrecognized(table, fmt.Sprintf("Table '%s' is not recognized.", table))
	}

	sealed, err := s.pipeline.Seal(buf.Bytes())
	if err != nil {
		return 0, err
	}

	err = s.store.Put(ctx, table, sealed)
	s.logger.LogArtifact("put", table, len(sealed), err)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Restore replaces a table's entire content from its snapshot artifact:
// decode, truncate with identity reset, then bulk load. The truncate and the
// load are separate failure domains; a load failure leaves the table truncated
// and is reported distinctly so operators know the state.
func (s *Service) Restore(ctx context.Context, table string) (int, error) {
	s.logger.WithField("table", table).Info("Starting restore")

	if !workforce.IsKnownTable(table) {
		return 0, apperrors.NewUnrecognized(table, fmt.Sprintf("Table '%s' is not recognized.", table))
	}

	artifact, err := s.store.Get(ctx, table)
	s.logger.LogArtifact("get", table, len(artifact), err)
	if err != nil {
		return 0, err
	}

	payload, err := s.pipeline.Open(artifact)
	if err != nil {
		return 0, apperrors.Wrap(err, fmt.Sprintf("failed to open artifact for table %s", table))
	}

	// TRUNCATE resets the AUTO_INCREMENT counter in MySQL, which is the
	// identity-reset the restore protocol requires.
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
		return 0, apperrors.NewFault(fmt.Sprintf("failed to truncate table %s before restore", table), err)
	}
	s.logger.WithField("table", table).Info("Table truncated before restore")

	count, err := s.loadRows(ctx, table, payload)
	if err != nil {
		return 0, apperrors.Wrap(err, fmt.Sprintf("restore load for table %s failed after truncate - table left truncated", table))
	}

	s.logger.WithFields(map[string]interface{}{
		"table": table,
		"rows":  count,
	}).Info("Restore completed")
	return count, nil
}

// loadRows decodes the snapshot payload and bulk-loads it in one transaction
func (s *Service) loadRows(ctx context.Context, table string, payload []byte) (int, error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewFault("failed to begin transaction", err)
	}

	var count int
	switch table {
	case workforce.TableDepartments:
		rows, decodeErr := codec.DecodeDepartments(bytes.NewReader(payload))
		if decodeErr != nil {
			tx.Rollback()
			return 0, apperrors.NewFault("failed to decode snapshot", decodeErr)
		}
		count, err = s.writer.InsertDepartments(ctx, tx, rows)

	case workforce.TableJobs:
		rows, decodeErr := codec.DecodeJobs(bytes.NewReader(payload))
		if decodeErr != nil {
			tx.Rollback()
			return 0, apperrors.NewFault("failed to decode snapshot", decodeErr)
		}
		count, err = s.writer.InsertJobs(ctx, tx, rows)

	case workforce.TableHiredEmployees:
		rows, decodeErr := codec.DecodeHiredEmployees(bytes.NewReader(payload))
		if decodeErr != nil {
			tx.Rollback()
			return 0, apperrors.NewFault("failed to decode snapshot", decodeErr)
		}
		count, err = s.writer.InsertHiredEmployees(ctx, tx, rows)
	}

	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			s.logger.WithField("error", rollbackErr.Error()).Error("Failed to rollback transaction")
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewFault("failed to commit restore transaction", err)
	}

	s.logger.LogBulkLoad(table, count, time.Since(start), nil)
	return count, nil
}

func (s *Service) readDepartments(ctx context.Context) ([]workforce.Department, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM departments ORDER BY id")
	if err != nil {
		return nil, apperrors.NewFault("failed to read departments", err)
	}
	defer rows.Close()

	var out []workforce.Department
	for rows.Next() {
		var d workforce.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, apperrors.NewFault("failed to scan department row", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Service) readJobs(ctx context.Context) ([]workforce.Job, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM jobs ORDER BY id")
	if err != nil {
		return nil, apperrors.NewFault("failed to read jobs", err)
	}
	defer rows.Close()

	var out []workforce.Job
	for rows.Next() {
		var j workforce.Job
		if err := rows.Scan(&j.ID, &j.Name); err != nil {
			return nil, apperrors.NewFault("failed to scan job row", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Service) readHiredEmployees(ctx context.Context) ([]workforce.HiredEmployee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, datetime, department_id, job_id FROM hired_employees ORDER BY id")
	if err != nil {
		return nil, apperrors.NewFault("failed to read hired employees", err)
	}
	defer rows.Close()

	var out []workforce.HiredEmployee
	for rows.Next() {
		var e workforce.HiredEmployee
		var hiredAt sql.NullTime
		var deptID, jobID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &hiredAt, &deptID, &jobID); err != nil {
			return nil, apperrors.NewFault("failed to scan hired employee row", err)
		}
		if hiredAt.Valid {
			e.HiredAt = hiredAt.Time.UTC()
		}
		if deptID.Valid {
			e.DepartmentID = int(deptID.Int64)
		}
		if jobID.Valid {
			e.JobID = int(jobID.Int64)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
