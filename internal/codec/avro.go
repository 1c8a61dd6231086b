// Package codec implements the two row encodings shared by backup/restore and
// historical migration: the schema-carrying binary snapshot format (Avro
// object container files) and the headerless tabular CSV format.
package codec

import (
	"io"

	"github.com/hamba/avro/v2/ocf"

	"workforce-ingest/internal/workforce"
)

// Per-table Avro schemas. The hired employee timestamp travels as ISO-8601
// text so snapshots stay readable by generic Avro tooling.
const (
	departmentSchema = `{
		"type": "record",
		"name": "Department",
		"fields": [
			{"name": "id", "type": "int"},
			{"name": "name", "type": "string"}
		]
	}`

	jobSchema = `{
		"type": "record",
		"name": "Job",
		"fields": [
			{"name": "id", "type": "int"},
			{"name": "name", "type": "string"}
		]
	}`

	hiredEmployeeSchema = `{
		"type": "record",
		"name": "HiredEmployee",
		"fields": [
			{"name": "id", "type": "int"},
			{"name": "name", "type": "string"},
			{"name": "datetime", "type": ["null", "string"]},
			{"name": "department_id", "type": ["null", "int"]},
			{"name": "job_id", "type": ["null", "int"]}
		]
	}`
)

type departmentRecord struct {
	ID   int    `avro:"id"`
	Name string `avro:"name"`
}

type jobRecord struct {
	ID   int    `avro:"id"`
	Name string `avro:"name"`
}

type hiredEmployeeRecord struct {
	ID           int     `avro:"id"`
	Name         string  `avro:"name"`
	Datetime     *string `avro:"datetime"`
	DepartmentID *int    `avro:"department_id"`
	JobID        *int    `avro:"job_id"`
}

// EncodeDepartments writes department rows as an Avro container file
func EncodeDepartments(w io.Writer, rows []workforce.Department) error {
	enc, err := ocf.NewEncoder(departmentSchema, w)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := enc.Encode(departmentRecord{ID: row.ID, Name: row.Name}); err != nil {
			return err
		}
	}
	return enc.Close()
}

// DecodeDepartments reads department rows from an Avro container file
func DecodeDepartments(r io.Reader) ([]workforce.Department, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	var rows []workforce.Department
	for dec.HasNext() {
		var rec departmentRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		rows = append(rows, workforce.Department{ID: rec.ID, Name: rec.Name})
	}
	return rows, dec.Error()
}

// EncodeJobs writes job rows as an Avro container file
func EncodeJobs(w io.Writer, rows []workforce.Job) error {
	enc, err := ocf.NewEncoder(jobSchema, w)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := enc.Encode(jobRecord{ID: row.ID, Name: row.Name}); err != nil {
			return err
		}
	}
	return enc.Close()
}

// DecodeJobs reads job rows from an Avro container file
func DecodeJobs(r io.Reader) ([]workforce.Job, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	var rows []workforce.Job
	for dec.HasNext() {
		var rec jobRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		rows = append(rows, workforce.Job{ID: rec.ID, Name: rec.Name})
	}
	return rows, dec.Error()
}

// EncodeHiredEmployees writes hire rows as an Avro container file. Timestamps
// are rendered as ISO-8601 UTC text at second precision, or null when absent.
func EncodeHiredEmployees(w io.Writer, rows []workforce.HiredEmployee) error {
	enc, err := ocf.NewEncoder(hiredEmployeeSchema, w)
	if err != nil {
		return err
	}
	for i := range rows {
		if err := enc.Encode(employeeToRecord(&rows[i])); err != nil {
			return err
		}
	}
	return enc.Close()
}

// DecodeHiredEmployees reads hire rows from an Avro container file. A datetime
// that fails to parse is kept as its raw text unchanged rather than failing
// the whole decode, so malformed legacy snapshots degrade gracefully.
func DecodeHiredEmployees(r io.Reader) ([]workforce.HiredEmployee, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	var rows []workforce.HiredEmployee
	for dec.HasNext() {
		var rec hiredEmployeeRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		rows = append(rows, recordToEmployee(&rec))
	}
	return rows, dec.Error()
}

func employeeToRecord(e *workforce.HiredEmployee) hiredEmployeeRecord {
	rec := hiredEmployeeRecord{ID: e.ID, Name: e.Name}

	if !e.HiredAt.IsZero() {
		formatted := e.HiredAt.UTC().Format(workforce.TimestampLayout)
		rec.Datetime = &formatted
	} else if e.Datetime != "" {
		raw := e.Datetime
		rec.Datetime = &raw
	}

	if e.DepartmentID != 0 {
		deptID := e.DepartmentID
		rec.DepartmentID = &deptID
	}
	if e.JobID != 0 {
		jobID := e.JobID
		rec.JobID = &jobID
	}

	return rec
}

func recordToEmployee(rec *hiredEmployeeRecord) workforce.HiredEmployee {
	emp := workforce.HiredEmployee{ID: rec.ID, Name: rec.Name}

	if rec.Datetime != nil {
		emp.Datetime = *rec.Datetime
		if hiredAt, err := workforce.ParseTimestamp(*rec.Datetime); err == nil {
			emp.HiredAt = hiredAt.UTC()
		}
	}

	if rec.DepartmentID != nil {
		emp.DepartmentID = *rec.DepartmentID
	}
	if rec.JobID != nil {
		emp.JobID = *rec.JobID
	}

	return emp
}
