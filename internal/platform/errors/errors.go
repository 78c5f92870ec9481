// Package errors is the coded error type every layer returns
// callers import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for callers and API clients
// the numeric values go over the wire, only append new ones
type ErrorCode uint16

const (
	ErrorCodeUnknown         ErrorCode = iota // unclassified
	ErrorCodePanic                            // recovered panic
	ErrorCodeUnavailable                      // backend or upstream down
	ErrorCodeTooManyRequests                  // rate limited
	ErrorCodeConflict                         // state conflict
	ErrorCodeUnauthorized                     // missing or bad credentials
	ErrorCodeForbidden                        // credentials without access
	ErrorCodeInvalidArgument                  // bad parameter
	ErrorCodeValidation                       // body broke a rule
	ErrorCodeJSON                             // body did not decode
	ErrorCodeNotFound                         // no such resource
	ErrorCodeDuplicateKey                     // unique violation
	ErrorCodeDB                               // other database failure
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeForbidden:       http.StatusForbidden,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeDuplicateKey:    http.StatusConflict,
}

// Status is the HTTP status for c, 500 when c has no mapping
func (c ErrorCode) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrNotFound is what single row lookups return when nothing matches
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is a message with a code, an optional input field and an optional cause
type Error struct {
	code  ErrorCode
	msg   string
	field string
	cause error
}

// Wire is how an error is rendered in API responses
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause == nil:
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error        { return e.cause }
func (e *Error) Code() ErrorCode      { return e.code }
func (e *Error) Field() string        { return e.field }
func (e *Error) Wire() Wire           { return Wire{Code: e.code, Message: e.msg, Field: e.field} }
func (e *Error) with(f string) *Error { c := *e; c.field = f; return &c }

// As returns the outermost *Error in the chain of err
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// CodeOf is the code of the outermost *Error, ErrorCodeUnknown when there is none
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err is classified as code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus is the response status for err
func HTTPStatus(err error) int { return CodeOf(err).Status() }

// WireFrom renders any error, foreign errors keep their text as ErrorCodeUnknown
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.Wire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// WithField copies err with the offending input field set
// foreign errors come back unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		return e.with(field)
	}
	return err
}

// root follows Unwrap to the innermost cause
func root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

func Newf(code ErrorCode, format string, a ...any) error { return New(code, fmt.Sprintf(format, a...)) }

// Wrapf classifies cause under code
func Wrapf(cause error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), cause: cause}
}

// WrapIf is Wrapf for a possibly nil err
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: err}
}

func NotFoundf(format string, a ...any) error     { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidArgf(format string, a ...any) error   { return Newf(ErrorCodeInvalidArgument, format, a...) }
func DBf(format string, a ...any) error           { return Newf(ErrorCodeDB, format, a...) }
func JSONErrf(format string, a ...any) error      { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error     { return Newf(ErrorCodePanic, format, a...) }
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }
func Unavailablef(format string, a ...any) error  { return Newf(ErrorCodeUnavailable, format, a...) }
