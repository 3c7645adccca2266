// Package apperr implements the error taxonomy from spec §7: IOError and
// FormatError (fatal to the current phase), DataError (logged, the
// offending record skipped), RoutingFailure and Cancelled (returned as
// values, not errors), and an invariant-violation helper treated as a bug.
package apperr

import "fmt"

// Code enumerates the taxonomy's error classes.
type Code string

const (
	CodeIO        Code = "io_error"
	CodeFormat    Code = "format_error"
	CodeData      Code = "data_error"
	CodeInvariant Code = "invariant_violation"
)

// AppError is a structured, taxonomy-tagged error, grounded on
// SoySergo-location_microservice's internal/pkg/errors.AppError shape
// (code/message/details), adapted to this spec's error classes.
type AppError struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// IOErrorf builds a fatal-to-the-phase IOError.
func IOErrorf(path, op string, err error) *AppError {
	return New(CodeIO, fmt.Sprintf("%s %s: %v", op, path, err)).
		WithDetail("path", path).WithDetail("op", op)
}

// FormatErrorf builds a fatal-to-the-phase FormatError.
func FormatErrorf(path, context string) *AppError {
	return New(CodeFormat, fmt.Sprintf("%s: %s", path, context)).WithDetail("path", path)
}

// DataError signals a skippable, logged-only inconsistency in the OSM
// input (a boundary with no name, an unparseable admin_level, a dangling
// via-node, …). The builder logs it at Warn/Info and continues the phase.
type DataError struct {
	Reason string
	Record string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error (%s): %s", e.Record, e.Reason)
}

func NewDataError(record, reason string) *DataError {
	return &DataError{Record: record, Reason: reason}
}

// Invariant panics if cond is false. Used for structural conditions that
// must never be false (e.g. "pending_offsets.empty() at writer close");
// spec §7 classifies their violation as a bug, not a recoverable error.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(&AppError{Code: CodeInvariant, Message: fmt.Sprintf(format, args...)})
	}
}
