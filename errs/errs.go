// Package errs holds the error taxonomy shared by every layer of the store.
//
// Each class is a sentinel; wrapped errors keep the class reachable through
// errors.Is so the transport can map them to a status code without string
// matching.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

type classified struct {
	class error
	msg   string
	cause error
}

func (e *classified) Error() string {
	return e.class.Error() + ": " + e.msg
}

func (e *classified) Is(target error) bool {
	return target == e.class
}

func (e *classified) Unwrap() error {
	return e.cause
}

func newf(class error, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return &classified{class: class, msg: err.Error(), cause: errors.Unwrap(err)}
}

func Validationf(format string, args ...any) error {
	return newf(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

func Unauthenticatedf(format string, args ...any) error {
	return newf(ErrUnauthenticated, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newf(ErrForbidden, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

// Message returns the error text without the class prefix.
func Message(err error) string {
	var c *classified
	if errors.As(err, &c) {
		return c.msg
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the transport answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
