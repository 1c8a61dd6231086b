package workforce

import (
	"testing"
	"time"

	apperrors "workforce-ingest/internal/errors"
)

func TestValidateCleanBatch(t *testing.T) {
	validator := NewValidator(nil)
	batch := &Batch{
		Departments: []Department{{ID: 1, Name: "Engineering"}},
		Jobs:        []Job{{ID: 1, Name: "Developer"}},
		HiredEmployees: []HiredEmployee{
			{ID: 1, Name: "Alice", Datetime: "2021-04-01T09:00:00Z", DepartmentID: 1, JobID: 1},
		},
	}

	if err := validator.Validate(IDSet{}, IDSet{}, batch); err != nil {
		t.Fatalf("Validate returned %v, want nil", err)
	}

	want := time.Date(2021, 4, 1, 9, 0, 0, 0, time.UTC)
	if !batch.HiredEmployees[0].HiredAt.Equal(want) {
		t.Errorf("HiredAt = %v, want %v", batch.HiredEmployees[0].HiredAt, want)
	}
}

func TestValidateEmployeeReferencesSameBatchEntities(t *testing.T) {
	validator := NewValidator(nil)
	batch := &Batch{
		Departments: []Department{{ID: 50, Name: "Research"}},
		Jobs:        []Job{{ID: 60, Name: "Scientist"}},
		HiredEmployees: []HiredEmployee{
			{ID: 1, Name: "Bob", Datetime: "2021-01-15T12:00:00Z", DepartmentID: 50, JobID: 60},
		},
	}

	if err := validator.Validate(IDSet{}, IDSet{}, batch); err != nil {
		t.Fatalf("employee referencing same-batch entities should validate, got %v", err)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	validator := NewValidator(nil)
	existing := IDSet{10: {}}
	batch := &Batch{
		Departments: []Department{
			{ID: 10, Name: "Sales"}, // already exists
			{ID: 11, Name: ""},      // empty name
			{ID: 11, Name: "Dup"},   // duplicate in batch
		},
		HiredEmployees: []HiredEmployee{
			{ID: 1, Name: "", Datetime: "", DepartmentID: 99, JobID: 99},
		},
	}

	err := validator.Validate(existing, IDSet{}, batch)
	if err == nil {
		t.Fatal("Validate returned nil, want validation error")
	}

	violations := apperrors.ViolationsOf(err)
	want := []string{
		"Department ID 10 already exists.",
		"Each department must have a non-empty 'name'.",
		"Duplicate department ID 11 in batch.",
		"Each employee must have a non-empty 'name'.",
		"Each employee must have a valid 'datetime' (ISO format string).",
		"Department ID 99 does not exist and is not in the new departments list.",
		"Job ID 99 does not exist and is not in the new jobs list.",
	}
	for _, w := range want {
		if !containsString(violations, w) {
			t.Errorf("violations missing %q\ngot: %v", w, violations)
		}
	}
}

func TestValidateInvalidDatetime(t *testing.T) {
	validator := NewValidator(nil)
	batch := &Batch{
		HiredEmployees: []HiredEmployee{
			{ID: 1, Name: "Carol", Datetime: "not-a-timestamp", DepartmentID: 1, JobID: 1},
		},
	}

	err := validator.Validate(IDSet{1: {}}, IDSet{1: {}}, batch)
	if err == nil {
		t.Fatal("Validate returned nil, want validation error")
	}
	if !containsString(apperrors.ViolationsOf(err), "Invalid datetime format: not-a-timestamp") {
		t.Errorf("violations = %v, want invalid datetime message", apperrors.ViolationsOf(err))
	}
}

func TestValidateJobViolations(t *testing.T) {
	validator := NewValidator(nil)
	existing := IDSet{5: {}}
	batch := &Batch{
		Jobs: []Job{
			{ID: 5, Name: "Analyst"},
			{ID: 6, Name: ""},
			{ID: 6, Name: "Dup"},
		},
	}

	err := validator.Validate(IDSet{}, existing, batch)
	violations := apperrors.ViolationsOf(err)
	want := []string{
		"Job ID 5 already exists.",
		"Each job must have a non-empty 'name'.",
		"Duplicate job ID 6 in batch.",
	}
	for _, w := range want {
		if !containsString(violations, w) {
			t.Errorf("violations missing %q\ngot: %v", w, violations)
		}
	}
}

func TestValidateRejectsNonPositiveIDs(t *testing.T) {
	validator := NewValidator(nil)
	batch := &Batch{
		Departments: []Department{{ID: 0, Name: "Engineering"}},
		Jobs:        []Job{{ID: -1, Name: "Developer"}},
		HiredEmployees: []HiredEmployee{
			// References resolve against the batch's own ids, so only the
			// positive-id rule rejects these rows.
			{ID: 0, Name: "Alice", Datetime: "2021-02-10T00:00:00Z", DepartmentID: 0, JobID: -1},
		},
	}

	err := validator.Validate(IDSet{}, IDSet{}, batch)
	if err == nil {
		t.Fatal("expected non-positive ids to be rejected")
	}
	violations := apperrors.ViolationsOf(err)
	want := []string{
		"Department ID 0 is not a positive integer.",
		"Job ID -1 is not a positive integer.",
		"Employee ID 0 is not a positive integer.",
	}
	for _, w := range want {
		if !containsString(violations, w) {
			t.Errorf("violations missing %q\ngot: %v", w, violations)
		}
	}
	if len(violations) != len(want) {
		t.Errorf("violations = %v, want exactly %d", violations, len(want))
	}
}

func TestValidateOffsetTimestampNormalizedToUTC(t *testing.T) {
	validator := NewValidator(nil)
	batch := &Batch{
		HiredEmployees: []HiredEmployee{
			{ID: 1, Name: "Dave", Datetime: "2021-06-01T10:00:00+02:00", DepartmentID: 1, JobID: 1},
		},
	}

	if err := validator.Validate(IDSet{1: {}}, IDSet{1: {}}, batch); err != nil {
		t.Fatalf("offset timestamps should be accepted, got %v", err)
	}
	want := time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)
	if !batch.HiredEmployees[0].HiredAt.Equal(want) {
		t.Errorf("HiredAt = %v, want %v", batch.HiredEmployees[0].HiredAt, want)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
