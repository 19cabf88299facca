// Package apperror defines the error kinds shared by the clipkeep core and
// its control surfaces. Callers compare with errors.Is against the sentinels;
// AppError carries the human-readable message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrSkipped marks a payload that produced no history item (blank or
	// unrecognised content). It is an outcome, not a failure.
	ErrSkipped = errors.New("classification skipped")

	// ErrPayloadTooLarge marks a payload beyond the configured byte ceiling.
	// Treated like ErrSkipped by the poller.
	ErrPayloadTooLarge = errors.New("payload too large")

	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrValidation  = errors.New("validation error")
)

// AppError pairs one of the sentinel kinds with a message for the caller.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

// NotFound reports a missing history entry or ignore entry.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Validation reports a rejected argument.
func Validation(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Skipped reports a payload that yields no item.
func Skipped(reason string) *AppError {
	return &AppError{
		Err:     ErrSkipped,
		Message: "skipped: " + reason,
	}
}

// TooLarge reports a payload of size bytes exceeding limit.
func TooLarge(size, limit int64) *AppError {
	return &AppError{
		Err:     ErrPayloadTooLarge,
		Message: fmt.Sprintf("payload of %d bytes exceeds the %d byte ceiling", size, limit),
	}
}

// Persistence wraps a storage failure for op.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}

// IsNoop reports whether err is an outcome that should be silently ignored
// by the ingest pipeline.
func IsNoop(err error) bool {
	return errors.Is(err, ErrSkipped) || errors.Is(err, ErrPayloadTooLarge)
}
