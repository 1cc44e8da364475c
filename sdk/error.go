package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aep/scopedb/errs"
)

// Error is a non-2xx answer from the server. It matches the errs sentinels
// with errors.Is, so callers can share classification code with the server.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	switch target {
	case errs.ErrValidation:
		return e.Code == http.StatusBadRequest
	case errs.ErrUnauthenticated:
		return e.Code == http.StatusUnauthorized
	case errs.ErrForbidden:
		return e.Code == http.StatusForbidden
	case errs.ErrNotFound:
		return e.Code == http.StatusNotFound
	case errs.ErrConflict:
		return e.Code == http.StatusConflict
	}
	return false
}

func code(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Code
}

func IsNotFound(err error) bool        { return code(err) == http.StatusNotFound }
func IsForbidden(err error) bool       { return code(err) == http.StatusForbidden }
func IsUnauthenticated(err error) bool { return code(err) == http.StatusUnauthorized }
func IsConflict(err error) bool        { return code(err) == http.StatusConflict }
func IsValidation(err error) bool      { return code(err) == http.StatusBadRequest }

func parseError(rsp *http.Response) error {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	json.NewDecoder(rsp.Body).Decode(&msg)
	switch {
	case msg.Error != "":
		return &Error{Code: rsp.StatusCode, Message: msg.Error}
	case msg.Message != "":
		return &Error{Code: rsp.StatusCode, Message: msg.Message}
	}
	return &Error{Code: rsp.StatusCode, Message: http.StatusText(rsp.StatusCode)}
}
