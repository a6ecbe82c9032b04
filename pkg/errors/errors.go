// Package errors defines the typed failures of a layout analysis.
//
// Every failure carries a machine-readable Code. Codes fall into two groups:
// fatal codes abort the analysis and are returned as *Error, while warning
// codes are recorded in the analysis report and never stop the pipeline.
//
//	err := errors.New(errors.ErrCodeNoBoundary, "no closed outline among %d walls", n)
//	if errors.Is(err, errors.ErrCodeNoBoundary) {
//	    // surface to the caller
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Fatal: the analysis produces no result.
	ErrCodeNoBoundary    Code = "NO_BOUNDARY_FOUND"
	ErrCodeAmbiguousPlan Code = "AMBIGUOUS_FLOOR_PLAN"
	ErrCodeTimeout       Code = "ANALYSIS_TIMEOUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeCancelled     Code = "CANCELLED"

	// Warnings: recorded, analysis continues.
	ErrCodeParse                Code = "PARSE_ERROR"
	ErrCodeInsufficientSpace    Code = "INSUFFICIENT_FREE_SPACE"
	ErrCodeCorridorUnreachable  Code = "CORRIDOR_UNREACHABLE"
	ErrCodeProportionDivergence Code = "PROPORTION_DIVERGENCE"
	ErrCodeOutsideBoundary      Code = "OUTSIDE_BOUNDARY"
)

// IsFatal reports whether code aborts an analysis.
func (c Code) IsFatal() bool {
	switch c {
	case ErrCodeNoBoundary, ErrCodeAmbiguousPlan, ErrCodeTimeout,
		ErrCodeInvalidConfig, ErrCodeInvalidInput, ErrCodeCancelled:
		return true
	}
	return false
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Human-readable message
	Details []string // Supporting items, e.g. the competing candidates
	Cause   error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails attaches supporting items and returns e.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix for *Error values
// and the plain error string otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// FromContext converts a context failure into ANALYSIS_TIMEOUT or
// CANCELLED. It returns nil when ctx is still live.
func FromContext(ctx context.Context, stage string) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrCodeTimeout, err, "%s exceeded the time limit", stage)
	default:
		return Wrap(ErrCodeCancelled, err, "%s cancelled", stage)
	}
}
