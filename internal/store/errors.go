package store

import "errors"

type ErrorCode string

const (
	CodeValidation   ErrorCode = "VALIDATION"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeInternal     ErrorCode = "INTERNAL"
)

type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) error {
	return &Error{Code: CodeValidation, Msg: msg}
}

func NewUnauthorizedError(msg string) error {
	return &Error{Code: CodeUnauthorized, Msg: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Code: CodeNotFound, Msg: msg}
}

func NewInternalError(msg string, err error) error {
	return &Error{Code: CodeInternal, Msg: msg, Err: err}
}

// CodeOf extracts the error code, defaulting to INTERNAL for plain errors.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

func IsValidationError(err error) bool {
	return CodeOf(err) == CodeValidation
}

func IsUnauthorizedError(err error) bool {
	return CodeOf(err) == CodeUnauthorized
}
