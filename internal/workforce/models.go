package workforce

import (
	"time"
)

// Table names of the three workforce entities. Order matters: employees
// reference the other two, so departments and jobs always load first.
const (
	TableDepartments    = "departments"
	TableJobs           = "jobs"
	TableHiredEmployees = "hired_employees"
)

// TimestampLayout is the wire format for hire timestamps: ISO-8601 with a
// trailing Z, UTC, second precision.
const TimestampLayout = "2006-01-02T15:04:05Z"

// KnownTables returns the entity tables in load order
func KnownTables() []string {
	return []string{TableDepartments, TableJobs, TableHiredEmployees}
}

// IsKnownTable reports whether name is one of the three entity tables
func IsKnownTable(name string) bool {
	switch name {
	case TableDepartments, TableJobs, TableHiredEmployees:
		return true
	}
	return false
}

// Department is an externally identified organizational unit
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Job is an externally identified job title
type Job struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// HiredEmployee is a hire event referencing a department and a job.
// Datetime carries the raw ISO-8601 text as received; HiredAt is the
// normalized value, set by validation or by the codecs when the text parses.
type HiredEmployee struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Datetime     string    `json:"datetime"`
	HiredAt      time.Time `json:"-"`
	DepartmentID int       `json:"department_id"`
	JobID        int       `json:"job_id"`
}

// HiredAtValue returns the value to persist for the datetime column: the
// normalized timestamp when available, otherwise the raw text unchanged so
// legacy data degrades instead of being silently dropped, otherwise NULL.
func (e *HiredEmployee) HiredAtValue() interface{} {
	if !e.HiredAt.IsZero() {
		return e.HiredAt.UTC()
	}
	if e.Datetime != "" {
		return e.Datetime
	}
	return nil
}

// ParseTimestamp parses an ISO-8601 hire timestamp. RFC 3339 is a superset of
// the canonical layout, so offsets other than Z are accepted and normalized.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// Batch is a single request's set of rows to insert atomically
type Batch struct {
	Departments    []Department    `json:"departments"`
	Jobs           []Job           `json:"jobs"`
	HiredEmployees []HiredEmployee `json:"hired_employees"`
}

// Size returns the total row count across all three lists
func (b *Batch) Size() int {
	return len(b.Departments) + len(b.Jobs) + len(b.HiredEmployees)
}

// InsertCounts reports how many rows of each entity were inserted
type InsertCounts struct {
	Departments    int `json:"departments"`
	Jobs           int `json:"jobs"`
	HiredEmployees int `json:"hired_employees"`
}

// Total returns the combined inserted row count
func (c InsertCounts) Total() int {
	return c.Departments + c.Jobs + c.HiredEmployees
}
