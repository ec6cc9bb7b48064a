package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes plan and execution failures so callers can branch
// without matching on message text.
type ErrorKind string

const (
	// KindEmptyPlan indicates no steps were found in the plan text.
	KindEmptyPlan ErrorKind = "EMPTY_PLAN"

	// KindStepNumbering indicates steps are not numbered 1..N in order.
	KindStepNumbering ErrorKind = "STEP_NUMBERING"

	// KindMissingStatement indicates a step without SQL.
	KindMissingStatement ErrorKind = "MISSING_STATEMENT"

	// KindMultiStatement indicates a step holding more than one statement.
	KindMultiStatement ErrorKind = "MULTI_STATEMENT"

	// KindNotReadOnly indicates a statement not starting with SELECT or WITH.
	KindNotReadOnly ErrorKind = "NOT_READ_ONLY"

	// KindForbiddenOperation indicates a mutating keyword.
	KindForbiddenOperation ErrorKind = "FORBIDDEN_OPERATION"

	// KindForbiddenTempTable indicates a temporary table reference.
	KindForbiddenTempTable ErrorKind = "FORBIDDEN_TEMP_TABLE"

	// KindDialectViolation indicates syntax the target engine does not speak.
	KindDialectViolation ErrorKind = "DIALECT_VIOLATION"

	// KindResultTooLarge indicates a statement returned more rows than allowed.
	KindResultTooLarge ErrorKind = "RESULT_TOO_LARGE"

	// KindUnknownIdentity indicates no pool exists for a fingerprint.
	KindUnknownIdentity ErrorKind = "UNKNOWN_IDENTITY"

	// KindExecution wraps a database driver failure.
	KindExecution ErrorKind = "EXECUTION"

	// KindAcquireTimeout indicates no pooled connection became free in time.
	KindAcquireTimeout ErrorKind = "ACQUIRE_TIMEOUT"
)

// Error is the single error type produced by plan validation and execution.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind ErrorKind

	// Step is the 1-based plan step, or 0 when not attributed to a step.
	Step int

	// Expected and Found describe a numbering mismatch.
	Expected int
	Found    int

	// Count is the number of statements found in a multi-statement step.
	Count int

	// Keyword is the forbidden keyword that matched.
	Keyword string

	// Pattern is the dialect pattern that matched.
	Pattern string

	// Limit is the row cap that was exceeded.
	Limit int

	// Fingerprint is the identity that was looked up.
	Fingerprint Fingerprint

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.message()
	if e.Step > 0 && e.Kind != KindStepNumbering {
		msg = fmt.Sprintf("step %d: %s", e.Step, msg)
	}
	return msg
}

func (e *Error) message() string {
	switch e.Kind {
	case KindEmptyPlan:
		return "no execution steps found"
	case KindStepNumbering:
		return fmt.Sprintf("step numbering invalid: expected Step%d, found Step%d", e.Expected, e.Found)
	case KindMissingStatement:
		return "empty or missing SQL"
	case KindMultiStatement:
		return fmt.Sprintf("expected exactly one SQL statement, found %d", e.Count)
	case KindNotReadOnly:
		return "only SELECT or WITH queries are allowed"
	case KindForbiddenOperation:
		return fmt.Sprintf("forbidden operation %s (DDL/DML not allowed)", e.Keyword)
	case KindForbiddenTempTable:
		return "temporary table usage is forbidden"
	case KindDialectViolation:
		return fmt.Sprintf("SQL not valid for the target dialect: matched %s", e.Pattern)
	case KindResultTooLarge:
		return fmt.Sprintf("result exceeds %d rows; add an aggregation or an explicit LIMIT", e.Limit)
	case KindUnknownIdentity:
		return fmt.Sprintf("no connection pool registered for identity %s; create the pool first", e.Fingerprint.Short())
	case KindAcquireTimeout:
		if e.Err != nil {
			return fmt.Sprintf("timed out waiting for a pooled connection: %v", e.Err)
		}
		return "timed out waiting for a pooled connection"
	case KindExecution:
		if e.Err != nil {
			return fmt.Sprintf("query failed: %v", e.Err)
		}
		return "query failed"
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain,
// or the empty kind when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// StepOf returns the step attributed to err, or 0.
func StepOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return 0
}

// AtStep attributes err to a plan step. A *Error is copied with Step set;
// any other error is wrapped as an execution error.
func AtStep(err error, step int) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Step = step
		return &cp
	}
	return &Error{Kind: KindExecution, Step: step, Err: err}
}

// Constructors used across packages.

// ErrEmptyPlan returns an EMPTY_PLAN error.
func ErrEmptyPlan() *Error {
	return &Error{Kind: KindEmptyPlan}
}

// ErrStepNumbering returns a STEP_NUMBERING error.
func ErrStepNumbering(expected, found int) *Error {
	return &Error{Kind: KindStepNumbering, Step: expected, Expected: expected, Found: found}
}

// ErrMissingStatement returns a MISSING_STATEMENT error.
func ErrMissingStatement(step int) *Error {
	return &Error{Kind: KindMissingStatement, Step: step}
}

// ErrMultiStatement returns a MULTI_STATEMENT error.
func ErrMultiStatement(step, count int) *Error {
	return &Error{Kind: KindMultiStatement, Step: step, Count: count}
}

// ErrNotReadOnly returns a NOT_READ_ONLY error.
func ErrNotReadOnly(step int) *Error {
	return &Error{Kind: KindNotReadOnly, Step: step}
}

// ErrForbiddenOperation returns a FORBIDDEN_OPERATION error.
func ErrForbiddenOperation(step int, keyword string) *Error {
	return &Error{Kind: KindForbiddenOperation, Step: step, Keyword: keyword}
}

// ErrForbiddenTempTable returns a FORBIDDEN_TEMP_TABLE error.
func ErrForbiddenTempTable(step int) *Error {
	return &Error{Kind: KindForbiddenTempTable, Step: step}
}

// ErrDialectViolation returns a DIALECT_VIOLATION error.
func ErrDialectViolation(pattern string) *Error {
	return &Error{Kind: KindDialectViolation, Pattern: pattern}
}

// ErrResultTooLarge returns a RESULT_TOO_LARGE error.
func ErrResultTooLarge(limit int) *Error {
	return &Error{Kind: KindResultTooLarge, Limit: limit}
}

// ErrUnknownIdentity returns an UNKNOWN_IDENTITY error.
func ErrUnknownIdentity(fp Fingerprint) *Error {
	return &Error{Kind: KindUnknownIdentity, Fingerprint: fp}
}

// ErrExecution wraps a driver failure.
func ErrExecution(cause error) *Error {
	return &Error{Kind: KindExecution, Err: cause}
}

// ErrAcquireTimeout wraps a pool checkout timeout.
func ErrAcquireTimeout(cause error) *Error {
	return &Error{Kind: KindAcquireTimeout, Err: cause}
}
