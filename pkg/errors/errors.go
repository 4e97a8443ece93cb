package errors

import (
	"errors"
	"fmt"
)

var ErrBadRequest = fmt.Errorf("bad request")
var ErrFetch = fmt.Errorf("fetch failed")
var ErrInternal = fmt.Errorf("internal error")
var ErrInvalidDocument = fmt.Errorf("invalid document")
var ErrNotFound = fmt.Errorf("not found")
var ErrParse = fmt.Errorf("parse error")
var ErrSave = fmt.Errorf("save failed")
var ErrSaveInProgress = fmt.Errorf("save in progress")
var ErrSessionClosed = fmt.Errorf("session closed")
var ErrUnknownField = fmt.Errorf("unknown field")
var ErrUnknownSession = fmt.Errorf("unknown session")

type myError struct {
	msg    string
	target error
	cause  error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }
func (m myError) Unwrap() error        { return m.cause }

func NewBadRequestError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrBadRequest,
	}
}

// NewFetchError wraps a failure of the underlying store while reading
func NewFetchError(path string, cause error) error {
	return &myError{
		msg:    fmt.Sprintf("failed to fetch %s: %s", path, cause.Error()),
		target: ErrFetch,
		cause:  cause,
	}
}

func NewInternalError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInternal,
	}
}

func NewInvalidDocumentError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInvalidDocument,
	}
}

func NewNotFoundError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrNotFound,
	}
}

func NewParseError(msg string) error {
	return &myError{
		msg:    "invalid JSON: " + msg,
		target: ErrParse,
	}
}

// NewSaveError keeps the message of the transport failure verbatim
func NewSaveError(cause error) error {
	return &myError{
		msg:    cause.Error(),
		target: ErrSave,
		cause:  cause,
	}
}

func NewSaveInProgressError(key string) error {
	return &myError{
		msg:    fmt.Sprintf("a save of %s is already in progress", key),
		target: ErrSaveInProgress,
	}
}

func NewSessionClosedError(key string) error {
	return &myError{
		msg:    fmt.Sprintf("the editor session for %s has been closed", key),
		target: ErrSessionClosed,
	}
}

func NewUnknownFieldError(path string) error {
	return &myError{
		msg:    fmt.Sprintf("the document has no field %q", path),
		target: ErrUnknownField,
	}
}

func NewUnknownSessionError(id string) error {
	return &myError{
		msg:    fmt.Sprintf("no editor session with id %s", id),
		target: ErrUnknownSession,
	}
}

// Is is a convenience alias for errors.Is so that callers importing this
// package do not also need the standard library package
func Is(err, target error) bool {
	return errors.Is(err, target)
}
