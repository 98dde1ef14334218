// Package errors defines the coded errors shared by the sawtooth packages.
//
// Every failure that crosses a package boundary is an [*Error] carrying a
// [Code]. The CLI prints [UserMessage], the HTTP API maps the code to a status
// and the pipeline uses [IsFatal] to tell a skippable profile from a failure
// that stops the batch.
//
// Codes group by what the caller can do about them:
//   - INVALID_*: the request or batch file is wrong; fix the input
//   - DEGENERATE: one tuple yields no profile; the batch continues without it
//   - LAYOUT_OVERLAP: the pitch is too small for the batch; nothing is placed
//   - SINK_FAILURE: a drawing target stopped accepting entities
//
// # Usage
//
//	if errors.Is(err, errors.ErrCodeDegenerate) {
//	    log.Warn("skipped profile", "reason", errors.UserMessage(err))
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidParams  Code = "INVALID_PARAMS"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidSpacing Code = "INVALID_SPACING"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Geometry errors
	ErrCodeDegenerate    Code = "DEGENERATE"
	ErrCodeLayoutOverlap Code = "LAYOUT_OVERLAP"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Output errors
	ErrCodeSinkFailure Code = "SINK_FAILURE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a code with a message and, for wrapped failures, the cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
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

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of a coded error without code or cause.
// Uncoded errors are returned as their Error string.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err must abort a running batch. Degenerate profiles
// are the only recoverable class; everything else stops the run.
func IsFatal(err error) bool {
	return err != nil && !Is(err, ErrCodeDegenerate)
}
