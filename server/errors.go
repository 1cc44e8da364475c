package server

import (
	"errors"
	"net/http"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/errs"
	"github.com/labstack/echo/v4"
)

// errorHandler answers every failed request with an ErrorResponse whose
// status comes from the error class.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := errs.HTTPStatus(err)
	msg := errs.Message(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if code >= 500 {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		msg = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, api.ErrorResponse{Error: msg})
	}
	if err != nil {
		log.Error("writing error response", "err", err)
	}
}

// statusOf is the status errorHandler will answer err with.
func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return errs.HTTPStatus(err)
}
