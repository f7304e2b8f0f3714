// Package errors provides the coded errors shared by the composer, the
// decode service and the HTTP layer.
//
// A code names the failure class once, at the point of failure, and the
// transport turns it into a status without string matching:
//
//	err := errors.Wrap(errors.ErrCodeDecode, cause, "cell %d", i)
//	status := errors.HTTPStatus(err) // 422
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// Caller mistakes
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeTooLarge     Code = "TOO_LARGE"

	// A cover could not be turned into pixels
	ErrCodeDecode       Code = "DECODE_FAILED"
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// The composed surface could not be written
	ErrCodeEncode Code = "ENCODE_FAILED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is reported when the caller went away before the
// render finished. It has no net/http constant.
const StatusClientClosedRequest = 499

var statuses = map[Code]int{
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeDecode:       http.StatusUnprocessableEntity,
	ErrCodeNetwork:      http.StatusUnprocessableEntity,
	ErrCodeFileNotFound: http.StatusUnprocessableEntity,
	ErrCodeEncode:       http.StatusInternalServerError,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// Error carries a code, a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any *Error in err's chain carries code, so a
// DECODE_FAILED wrapping a FILE_NOT_FOUND matches both.
func Is(err error, code Code) bool {
	if code == "" {
		return false
	}
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
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

// IsContext reports whether err stems from cancellation or a deadline rather
// than from the work itself.
func IsContext(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// HTTPStatus maps err to a response status. Uncoded context errors become
// 504 for deadlines and 499 for cancellation; anything else without a known
// code is a 500.
func HTTPStatus(err error) int {
	if s, ok := statuses[GetCode(err)]; ok {
		return s
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	}
	return http.StatusInternalServerError
}

// UserMessage returns err without the code prefix, keeping the cause so the
// caller can tell which reference failed and why.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
