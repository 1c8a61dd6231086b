package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Kind represents different categories of ingestion errors
type Kind string

const (
	// KindMalformedBatch represents a batch whose total row count is out of bounds
	KindMalformedBatch Kind = "malformed_batch"
	// KindValidation represents one or more referential or shape violations
	KindValidation Kind = "validation_failure"
	// KindConstraint represents a store-level uniqueness or foreign-key rejection
	KindConstraint Kind = "constraint_violation"
	// KindNotFound represents a missing backup artifact or migration source
	KindNotFound Kind = "not_found"
	// KindUnrecognized represents a table name outside the known set
	KindUnrecognized Kind = "unrecognized_resource"
	// KindFault represents any other unexpected failure
	KindFault Kind = "infrastructure_fault"
)

// Error is the application error carrying its taxonomy kind and context
type Error struct {
	Kind       Kind
	Message    string
	Cause      error
	Violations []string
	Resource   string
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, strings.Join(e.Violations, "; "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates an Error of the given kind
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMalformedBatch creates a malformed-batch error
func NewMalformedBatch(message string) *Error {
	return New(KindMalformedBatch, message, nil)
}

// NewValidation creates a validation-failure error carrying the full violation list
func NewValidation(violations []string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    fmt.Sprintf("batch validation failed with %d violation(s)", len(violations)),
		Violations: violations,
		Context:    make(map[string]interface{}),
	}
}

// NewConstraint creates a constraint-violation error
func NewConstraint(message string, cause error) *Error {
	return New(KindConstraint, message, cause)
}

// NewNotFound creates a not-found error naming the missing resource
func NewNotFound(resource, message string, cause error) *Error {
	err := New(KindNotFound, message, cause)
	err.Resource = resource
	return err
}

// NewUnrecognized creates an unrecognized-resource error naming the resource
func NewUnrecognized(resource, message string) *Error {
	err := New(KindUnrecognized, message, nil)
	err.Resource = resource
	return err
}

// NewFault creates an infrastructure-fault error
func NewFault(message string, cause error) *Error {
	return New(KindFault, message, cause)
}

// MySQL error numbers that indicate a data problem the caller can fix,
// as opposed to an infrastructure fault.
const (
	mysqlErrDuplicateEntry    = 1062
	mysqlErrForeignKeyChild   = 1451
	mysqlErrForeignKeyParent  = 1452
	mysqlErrDuplicateEntryKey = 1586
)

// Classify maps an arbitrary error onto the taxonomy. Errors that are already
// an *Error pass through unchanged; MySQL uniqueness/foreign-key rejections
// become constraint violations; everything else is an infrastructure fault.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry, mysqlErrDuplicateEntryKey:
			return NewConstraint("duplicate entry - record already exists", err).
				WithContext("mysql_error_code", mysqlErr.Number)
		case mysqlErrForeignKeyParent, mysqlErrForeignKeyChild:
			return NewConstraint("foreign key constraint rejected the row", err).
				WithContext("mysql_error_code", mysqlErr.Number)
		default:
			return NewFault(fmt.Sprintf("MySQL error: %s", mysqlErr.Message), err).
				WithContext("mysql_error_code", mysqlErr.Number)
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFound("", "no rows found", err)
	}
	if errors.Is(err, sql.ErrTxDone) {
		return NewFault("transaction has already been committed or rolled back", err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return NewFault("database connection is closed", err)
	}

	return NewFault("an unexpected error occurred", err)
}

// KindOf returns the taxonomy kind of an error, KindFault for foreign errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindFault
}

// IsKind reports whether an error belongs to the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ViolationsOf returns the violation list of a validation error, nil otherwise
func ViolationsOf(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == KindValidation {
		return appErr.Violations
	}
	return nil
}

// ResourceOf returns the resource name carried by not-found and
// unrecognized-resource errors
func ResourceOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Resource
	}
	return ""
}

// Wrap wraps an existing error with an additional message, preserving its kind
// and structured payload (resource name, violation list)
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		wrapped := New(appErr.Kind, message, err)
		wrapped.Resource = appErr.Resource
		wrapped.Violations = appErr.Violations
		return wrapped
	}
	return New(Classify(err).Kind, message, err)
}
