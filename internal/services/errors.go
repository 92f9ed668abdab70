package services

import (
	"errors"
	"fmt"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotFound          = "NOT_FOUND"
	CodeStorage           = "STORAGE_UNAVAILABLE"
)

// ValidationError rejects input before anything is written.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError covers both absent ids and ids owned by another tenant.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// StorageError means the store could not serve the call.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage unavailable: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorCode reports the machine readable code of a service error.
func ErrorCode(err error) string {
	var ve *ValidationError
	var nf *NotFoundError
	switch {
	case errors.As(err, &ve):
		return ve.Code
	case errors.As(err, &nf):
		return CodeNotFound
	default:
		return CodeStorage
	}
}

// storageFailure passes typed service errors through and wraps anything else
// as a StorageError.
func storageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var nf *NotFoundError
	var se *StorageError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
