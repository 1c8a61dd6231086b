// Package report exposes the two read-only hiring aggregates. Reporting is a
// separate collaborator of the ingestion engine and has no write path.
package report

import (
	"context"
	"database/sql"

	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
)

// Reporter is the read-only query interface: exactly the two named aggregates.
type Reporter interface {
	HiredPerQuarter(ctx context.Context) ([]QuarterRow, error)
	DepartmentsAboveAverage(ctx context.Context) ([]DepartmentHires, error)
}

// QuarterRow is one department/job line of the 2021 quarterly hiring report
type QuarterRow struct {
	Department string `json:"department"`
	Job        string `json:"job"`
	Q1         int    `json:"Q1"`
	Q2         int    `json:"Q2"`
	Q3         int    `json:"Q3"`
	Q4         int    `json:"Q4"`
}

// DepartmentHires is one line of the above-average hiring report
type DepartmentHires struct {
	ID         int    `json:"id"`
	Department string `json:"department"`
	Hired      int    `json:"hired"`
}

// Service implements Reporter against the relational store
type Service struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewService creates the reporting service
func NewService(db *sql.DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Service{db: db, logger: logger}
}

const hiredPerQuarterQuery = `
SELECT d.name AS department,
       j.name AS job,
       SUM(QUARTER(e.datetime) = 1) AS q1,
       SUM(QUARTER(e.datetime) = 2) AS q2,
       SUM(QUARTER(e.datetime) = 3) AS q3,
       SUM(QUARTER(e.datetime) = 4) AS q4
FROM hired_employees e
JOIN departments d ON d.id = e.department_id
JOIN jobs j ON j.id = e.job_id
WHERE YEAR(e.datetime) = 2021
GROUP BY d.name, j.name
ORDER BY d.name, j.name`

// HiredPerQuarter reports employees hired per job and department in 2021,
// divided by quarter.
func (s *Service) HiredPerQuarter(ctx context.Context) ([]QuarterRow, error) {
	rows, err := s.db.QueryContext(ctx, hiredPerQuarterQuery)
	if err != nil {
		return nil, apperrors.NewFault("failed to query quarterly hires", err)
	}
	defer rows.Close()

	var out []QuarterRow
	for rows.Next() {
		var r QuarterRow
		if err := rows.Scan(&r.Department, &r.Job, &r.Q1, &r.Q2, &r.Q3, &r.Q4); err != nil {
			return nil, apperrors.NewFault("failed to scan quarterly report row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewFault("failed to iterate quarterly report rows", err)
	}
	return out, nil
}

const departmentsAboveAverageQuery = `
SELECT d.id,
       d.name AS department,
       COUNT(e.id) AS hired
FROM departments d
JOIN hired_employees e ON d.id = e.department_id
WHERE YEAR(e.datetime) = 2021
GROUP BY d.id, d.name
HAVING COUNT(e.id) > (
    SELECT AVG(hired_count) FROM (
        SELECT COUNT(e2.id) AS hired_count
        FROM departments d2
        JOIN hired_employees e2 ON d2.id = e2.department_id
        WHERE YEAR(e2.datetime) = 2021
        GROUP BY d2.id
    ) AS department_hires
)
ORDER BY hired DESC`

// DepartmentsAboveAverage reports departments that hired more employees than
// the 2021 cross-department average.
func (s *Service) DepartmentsAboveAverage(ctx context.Context) ([]DepartmentHires, error) {
	rows, err := s.db.QueryContext(ctx, departmentsAboveAverageQuery)
	if err != nil {
		return nil, apperrors.NewFault("failed to query above-average departments", err)
	}
	defer rows.Close()

	var out []DepartmentHires
	for rows.Next() {
		var r DepartmentHires
		if err := rows.Scan(&r.ID, &r.Department, &r.Hired); err != nil {
			return nil, apperrors.NewFault("failed to scan department report row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewFault("failed to iterate department report rows", err)
	}
	return out, nil
}
