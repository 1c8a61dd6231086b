package workforce

import (
	"fmt"

	apperrors "workforce-ingest/internal/errors"
	"workforce-ingest/internal/logging"
)

// IDSet is a set of already-persisted entity identifiers
type IDSet map[int]struct{}

// Contains reports set membership
func (s IDSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Validator checks a candidate batch against persisted identifiers and
// batch-internal identifiers. Violations are collected eagerly; the batch is
// rejected as a whole when any exist.
type Validator struct {
	logger *logging.Logger
}

// NewValidator creates a batch validator
func NewValidator(logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Validator{logger: logger}
}

// Validate checks every row of the batch. Employee references must resolve
// against the union of existing ids and same-batch new ids, because a batch may
// introduce a department and an employee referencing it in the same call.
// As a side effect, each employee's timestamp is normalized into HiredAt for
// downstream insertion. Returns a validation error carrying the full violation
// list, or nil.
func (v *Validator) Validate(existingDepartmentIDs, existingJobIDs IDSet, batch *Batch) error {
	var violations []string

	newDepartmentIDs := make(IDSet, len(batch.Departments))
	seenDepartmentIDs := make(IDSet, len(batch.Departments))
	for _, dept := range batch.Departments {
		if dept.ID <= 0 {
			violations = append(violations, fmt.Sprintf("Department ID %d is not a positive integer.", dept.ID))
		}
		if dept.Name == "" {
			violations = append(violations, "Each department must have a non-empty 'name'.")
		}
		if existingDepartmentIDs.Contains(dept.ID) {
			violations = append(violations, fmt.Sprintf("Department ID %d already exists.", dept.ID))
		}
		if seenDepartmentIDs.Contains(dept.ID) {
			violations = append(violations, fmt.Sprintf("Duplicate department ID %d in batch.", dept.ID))
		}
		seenDepartmentIDs[dept.ID] = struct{}{}
		newDepartmentIDs[dept.ID] = struct{}{}
	}

	newJobIDs := make(IDSet, len(batch.Jobs))
	seenJobIDs := make(IDSet, len(batch.Jobs))
	for _, job := range batch.Jobs {
		if job.ID <= 0 {
			violations = append(violations, fmt.Sprintf("Job ID %d is not a positive integer.", job.ID))
		}
		if job.Name == "" {
			violations = append(violations, "Each job must have a non-empty 'name'.")
		}
		if existingJobIDs.Contains(job.ID) {
			violations = append(violations, fmt.Sprintf("Job ID %d already exists.", job.ID))
		}
		if seenJobIDs.Contains(job.ID) {
			violations = append(violations, fmt.Sprintf("Duplicate job ID %d in batch.", job.ID))
		}
		seenJobIDs[job.ID] = struct{}{}
		newJobIDs[job.ID] = struct{}{}
	}

	for i := range batch.HiredEmployees {
		emp := &batch.HiredEmployees[i]

		if emp.ID <= 0 {
			violations = append(violations, fmt.Sprintf("Employee ID %d is not a positive integer.", emp.ID))
		}
		if emp.Name == "" {
			violations = append(violations, "Each employee must have a non-empty 'name'.")
		}

		if emp.Datetime == "" {
			violations = append(violations, "Each employee must have a valid 'datetime' (ISO format string).")
		} else {
			hiredAt, err := ParseTimestamp(emp.Datetime)
			if err != nil {
				violations = append(violations, fmt.Sprintf("Invalid datetime format: %s", emp.Datetime))
			} else {
				emp.HiredAt = hiredAt.UTC()
			}
		}

		if !existingDepartmentIDs.Contains(emp.DepartmentID) && !newDepartmentIDs.Contains(emp.DepartmentID) {
			violations = append(violations,
				fmt.Sprintf("Department ID %d does not exist and is not in the new departments list.", emp.DepartmentID))
		}

		if !existingJobIDs.Contains(emp.JobID) && !newJobIDs.Contains(emp.JobID) {
			violations = append(violations,
				fmt.Sprintf("Job ID %d does not exist and is not in the new jobs list.", emp.JobID))
		}
	}

	if len(violations) > 0 {
		v.logger.WithFields(map[string]interface{}{
			"violations": len(violations),
			"batch_size": batch.Size(),
		}).Warn("Batch validation failed")
		return apperrors.NewValidation(violations)
	}

	return nil
}
