// Package common holds the error, logging, money formatting and retry
// helpers shared by the command layer and its backends.
package common

import (
	"context"
	"errors"
)

var (
	// ErrExportFailed marks a PDF or spreadsheet export that did not complete.
	ErrExportFailed = errors.New("export failed")
	// ErrInvalidConfig marks a configuration value that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message meant for the terminal alongside the
// underlying cause, which is only logged.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return e.UserMessage + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a message the CLI prints verbatim. err may be nil.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// IsPermanent reports whether retrying err cannot help: the caller gave
// up, or the failure was marked non-retryable.
func IsPermanent(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return !retryableErr.Retryable
	}
	return false
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

// Transient marks err as worth retrying.
func Transient(err error) error {
	return &RetryableError{Err: err, Retryable: true}
}
