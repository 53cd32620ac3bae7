package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error type names rendered in the response envelope under data.error.type.
const (
	TypeValidation = "ValidationError"
	TypeNotFound   = "NotFoundError"
	TypePersist    = "PersistenceError"
	TypeUpstream   = "UpstreamProviderError"
	TypeAuth       = "AuthError"
	// TypeNoRowsUpdated marks an update or delete that matched nothing.
	TypeNoRowsUpdated = "NoRowsUpdated"
)

type Error struct {
	Status int
	// Code is the taxonomy type, e.g. TypeNotFound.
	Code string
	// Message is the top-level envelope message shown to callers.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: TypeValidation, Message: msg, Err: errors.New(msg)}
}

func NotFound(msg string, err error) *Error {
	if err == nil {
		err = errors.New(msg)
	}
	return &Error{Status: http.StatusNotFound, Code: TypeNotFound, Message: msg, Err: err}
}

// NoRowsUpdated is a 404 whose envelope message is the generic "Error".
func NoRowsUpdated(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Code: TypeNoRowsUpdated, Message: "Error", Err: errors.New(detail)}
}

func Persistence(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: TypePersist, Message: msg, Err: err}
}

func Upstream(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: TypeUpstream, Message: msg, Err: err}
}

func Auth(status int, msg string, err error) *Error {
	return &Error{Status: status, Code: TypeAuth, Message: msg, Err: err}
}

// As extracts an *Error from err, wrapping anything else as a 500 persistence failure.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Persistence("Database error occurred", err)
}

func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}
