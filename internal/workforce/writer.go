package workforce

import (
	"context"
	"database/sql"
	"strings"
	"time"

	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
)

// Execer is the statement-execution slice of a store session. Both *sql.Tx and
// *sql.DB satisfy it; the writer never manages the transaction itself.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Writer performs ordered multi-table bulk inserts. All methods execute on the
// session they are handed; atomicity is the caller's transaction scope.
type Writer struct {
	logger *logging.Logger
}

// NewWriter creates a bulk writer
func NewWriter(logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Writer{logger: logger}
}

// Write inserts a validated batch in dependency order: departments, then jobs,
// then hired employees. On any failure the error is returned immediately so the
// enclosing transaction can roll the earlier steps back.
func (w *Writer) Write(ctx context.Context, exec Execer, batch *Batch) (InsertCounts, error) {
	var counts InsertCounts

	n, err := w.InsertDepartments(ctx, exec, batch.Departments)
	if err != nil {
		return counts, err
	}
	counts.Departments = n

	n, err = w.InsertJobs(ctx, exec, batch.Jobs)
	if err != nil {
		return counts, err
	}
	counts.Jobs = n

	n, err = w.InsertHiredEmployees(ctx, exec, batch.HiredEmployees)
	if err != nil {
		return counts, err
	}
	counts.HiredEmployees = n

	return counts, nil
}

// InsertDepartments bulk-inserts department rows
func (w *Writer) InsertDepartments(ctx context.Context, exec Execer, rows []Department) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	start := time.Now()
	query, args := buildNamedInsert(TableDepartments, []string{"id", "name"}, len(rows))
	for _, row := range rows {
		args = append(args, row.ID, row.Name)
	}

	_, err := exec.ExecContext(ctx, query, args...)
	w.logger.LogBulkLoad(TableDepartments, len(rows), time.Since(start), err)
	if err != nil {
		return 0, apperrors.Classify(err).WithContext("table", TableDepartments)
	}
	return len(rows), nil
}

// InsertJobs bulk-inserts job rows
func (w *Writer) InsertJobs(ctx context.Context, exec Execer, rows []Job) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	start := time.Now()
	query, args := buildNamedInsert(TableJobs, []string{"id", "name"}, len(rows))
	for _, row := range rows {
		args = append(args, row.ID, row.Name)
	}

	_, err := exec.ExecContext(ctx, query, args...)
	w.logger.LogBulkLoad(TableJobs, len(rows), time.Since(start), err)
	if err != nil {
		return 0, apperrors.Classify(err).WithContext("table", TableJobs)
	}
	return len(rows), nil
}

// InsertHiredEmployees bulk-inserts hire rows. Zero-valued foreign keys are
// persisted as NULL: they only occur on the restore and migration paths, where
// the source formats allow absent references. Validation rejects non-positive
// ids, so the transactional insert path never produces one.
func (w *Writer) InsertHiredEmployees(ctx context.Context, exec Execer, rows []HiredEmployee) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	start := time.Now()
	query, args := buildNamedInsert(TableHiredEmployees,
		[]string{"id", "name", "datetime", "department_id", "job_id"}, len(rows))
	for i := range rows {
		row := &rows[i]
		args = append(args, row.ID, row.Name, row.HiredAtValue(),
			nullableID(row.DepartmentID), nullableID(row.JobID))
	}

	_, err := exec.ExecContext(ctx, query, args...)
	w.logger.LogBulkLoad(TableHiredEmployees, len(rows), time.Since(start), err)
	if err != nil {
		return 0, apperrors.Classify(err).WithContext("table", TableHiredEmployees)
	}
	return len(rows), nil
}

func nullableID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// buildNamedInsert renders a multi-row INSERT statement and returns it with an
// argument slice pre-sized for rowCount rows.
func buildNamedInsert(table string, columns []string, rowCount int) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES ")

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	for i := 0; i < rowCount; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
	}

	return sb.String(), make([]interface{}, 0, rowCount*len(columns))
}
