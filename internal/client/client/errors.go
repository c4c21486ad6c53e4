package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrWireFormat   = errors.New("wire format error")
	ErrLoginFailed  = errors.New("login failed")
	ErrCancelled    = errors.New("cancelled")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// StatusError is returned for every response with a status of 400 or more.
// It unwraps to one of ErrUnauthorized, ErrForbidden, ErrNotFound or
// ErrServer.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

// statusError maps an HTTP status code to a StatusError, or nil below 400.
func statusError(method, url string, code int, status string) *StatusError {
	if code < http.StatusBadRequest {
		return nil
	}

	var err error
	switch code {
	case http.StatusUnauthorized:
		err = ErrUnauthorized
	case http.StatusForbidden:
		err = ErrForbidden
	case http.StatusNotFound:
		err = ErrNotFound
	default:
		err = ErrServer
	}
	if status == "" {
		status = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}
	return &StatusError{Method: method, URL: url, Code: code, Status: status, Err: err}
}
