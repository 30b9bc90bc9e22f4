package etl

import (
	"errors"
	"fmt"
)

// ErrorKind tags the failure reason a stage reports. The orchestrator matches
// on kinds instead of parsing error text.
type ErrorKind string

const (
	// Extraction failures.
	KindNotFound       ErrorKind = "not_found"
	KindEmptyInput     ErrorKind = "empty_input"
	KindMalformedInput ErrorKind = "malformed_input"

	// Transformation failures.
	KindSchemaViolation ErrorKind = "schema_violation"
	KindTypeCoercion    ErrorKind = "type_coercion"

	// A contract violation between stages, not a data error.
	KindInternal ErrorKind = "internal"

	// Load failures.
	KindPersistence ErrorKind = "persistence"
)

// ErrValidationFailed is the quality-gate verdict, distinct from stage
// errors: the data was readable but failed a domain rule.
var ErrValidationFailed = errors.New("data validation failed")

// Error is the failure type every stage returns. All kinds are terminal for
// the run that produced them.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match two stage errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the stage error kind, or KindInternal for unexpected error
// values that escaped a collaborator without classification.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
