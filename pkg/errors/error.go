package errors

import (
	"errors"
	"fmt"
)

// Re-exported standard library helpers.
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Error extends the error interface with a code.
type Error interface {
	error
	Code() string
	Unwrap() error
}

// AppError is the default Error implementation.
type AppError struct {
	code    string
	message string
	err     error
	status  int
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string {
	return e.code
}

// Message returns the user-facing message without the wrapped cause.
func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Status returns the HTTP status for the error. An explicit status set with
// WithStatus wins over the code table.
func (e *AppError) Status() int {
	if e.status != 0 {
		return e.status
	}
	return GetCodeMapping(e.code)
}

// WithStatus pins the HTTP status, for errors that mirror an upstream status
// the code table does not cover.
func (e *AppError) WithStatus(status int) *AppError {
	e.status = status
	return e
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Wrap wraps err, keeping the code of an inner AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return NewAppError(appErr.Code(), message, err)
	}

	return NewAppError(ErrInternal, message, err)
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}
