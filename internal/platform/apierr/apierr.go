// Package apierr carries transport-level failures (bad ids, bad bodies,
// missing credentials) that never reach a service.
package apierr

import "net/http"

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error { return New(http.StatusBadRequest, code, err) }

func Unauthorized(err error) *Error { return New(http.StatusUnauthorized, "unauthorized", err) }
