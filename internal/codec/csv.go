package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"workforce-ingest/internal/workforce"
)

// Fixed column orders of the headerless tabular format.
var (
	departmentColumns    = []string{"id", "name"}
	hiredEmployeeColumns = []string{"id", "name", "datetime", "department_id", "job_id"}
)

// ParseDepartments parses headerless id,name rows
func ParseDepartments(data []byte) ([]workforce.Department, error) {
	records, err := readRecords(data, len(departmentColumns))
	if err != nil {
		return nil, err
	}

	rows := make([]workforce.Department, 0, len(records))
	for i, record := range records {
		id, err := requiredInt(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid department id %q", i+1, record[0])
		}
		rows = append(rows, workforce.Department{ID: id, Name: record[1]})
	}
	return rows, nil
}

// ParseJobs parses headerless id,name rows
func ParseJobs(data []byte) ([]workforce.Job, error) {
	records, err := readRecords(data, len(departmentColumns))
	if err != nil {
		return nil, err
	}

	rows := make([]workforce.Job, 0, len(records))
	for i, record := range records {
		id, err := requiredInt(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid job id %q", i+1, record[0])
		}
		rows = append(rows, workforce.Job{ID: id, Name: record[1]})
	}
	return rows, nil
}

// ParseHiredEmployees parses headerless id,name,datetime,department_id,job_id
// rows. Unparseable datetimes and reference ids coerce to null instead of
// aborting the row; a bad primary id aborts the parse.
func ParseHiredEmployees(data []byte) ([]workforce.HiredEmployee, error) {
	records, err := readRecords(data, len(hiredEmployeeColumns))
	if err != nil {
		return nil, err
	}

	rows := make([]workforce.HiredEmployee, 0, len(records))
	for i, record := range records {
		id, err := requiredInt(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid employee id %q", i+1, record[0])
		}

		emp := workforce.HiredEmployee{
			ID:           id,
			Name:         record[1],
			DepartmentID: lenientInt(record[3]),
			JobID:        lenientInt(record[4]),
		}

		if raw := normalizeCell(record[2]); raw != "" {
			if hiredAt, err := time.Parse(workforce.TimestampLayout, raw); err == nil {
				emp.Datetime = raw
				emp.HiredAt = hiredAt.UTC()
			}
			// unparseable datetime coerces to null
		}

		rows = append(rows, emp)
	}
	return rows, nil
}

// readRecords parses raw CSV bytes with a fixed column count
func readRecords(data []byte, columns int) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = columns
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tabular data: %w", err)
	}
	return records, nil
}

// normalizeCell maps empty and whitespace-only cells to the absent value
func normalizeCell(cell string) string {
	return strings.TrimSpace(cell)
}

func requiredInt(cell string) (int, error) {
	return strconv.Atoi(normalizeCell(cell))
}

// lenientInt coerces a cell to an integer, null (zero) when absent or
// unparseable
func lenientInt(cell string) int {
	value, err := strconv.Atoi(normalizeCell(cell))
	if err != nil {
		return 0
	}
	return value
}
