// Package apperr defines the API error type and the codes returned to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in the "error" field of failure bodies.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInternal            = "INTERNAL_ERROR"
	CodeBookNotFound        = "BOOK_NOT_FOUND"
	CodeBookAlreadyExists   = "BOOK_ALREADY_EXISTS"
	CodeLayoutNotFound      = "LAYOUT_NOT_FOUND"
	CodeLayoutAlreadyExists = "LAYOUT_ALREADY_EXISTS"
	CodeLayoutIDMismatch    = "LAYOUT_ID_MISMATCH"
	CodeRunNotFound         = "RUN_NOT_FOUND"
	CodeJobNotFound         = "JOB_NOT_FOUND"
)

// Error carries an HTTP status and a machine-readable code.
type Error struct {
	Code       string            `json:"error"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// New creates an Error.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// Validation reports field-level request failures.
func Validation(fields map[string]string) *Error {
	e := New(CodeValidation, "validation failed", http.StatusBadRequest)
	e.Details = fields
	return e
}

// BadRequest reports a malformed request.
func BadRequest(message string) *Error {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

// NotFound reports a missing entity.
func NotFound(code, message string) *Error {
	return New(code, message, http.StatusNotFound)
}

// Conflict reports a uniqueness clash.
func Conflict(code, message string) *Error {
	return New(code, message, http.StatusConflict)
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return New(CodeInternal, "an internal error occurred", http.StatusInternalServerError).Wrap(err)
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsNotFound reports whether err is a 404 Error.
func IsNotFound(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound
}
