// Package apperr defines the application error taxonomy and its HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an application error.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeGenerationFailed Code = "GENERATION_FAILED"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// AppError is an error with a code the API boundary can map to a status.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not-found error.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// Conflict creates a uniqueness-violation error.
func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// InvalidInput creates a validation error.
func InvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

// InvalidOperation creates an error for a request that is well formed but not allowed.
func InvalidOperation(message string) *AppError {
	return &AppError{Code: CodeInvalidOperation, Message: message}
}

// Generation wraps a failure of the external text-generation service.
func Generation(cause error) *AppError {
	return &AppError{Code: CodeGenerationFailed, Message: "failed to generate AI response", Err: cause}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: cause}
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return err != nil && CodeOf(err) == CodeNotFound }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return err != nil && CodeOf(err) == CodeConflict }

// IsInvalidOperation reports whether err is an invalid-operation error.
func IsInvalidOperation(err error) bool {
	return err != nil && CodeOf(err) == CodeInvalidOperation
}

// IsGeneration reports whether err is a generation failure.
func IsGeneration(err error) bool { return err != nil && CodeOf(err) == CodeGenerationFailed }

// HTTPStatus maps err to the status code returned to clients.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidInput, CodeInvalidOperation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
