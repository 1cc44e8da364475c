package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aep/scopedb/errs"
	"github.com/labstack/echo/v4"
)

type Binder struct {
	defaultBinder *echo.DefaultBinder
}

func (cb *Binder) Bind(i interface{}, c echo.Context) error {
	if c.Request().Method == http.MethodPost || c.Request().Method == http.MethodPut {
		contentType := c.Request().Header.Get(echo.HeaderContentType)

		if contentType == "" || strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
			// keep numbers as json.Number so ids and index values survive unchanged
			dec := json.NewDecoder(c.Request().Body)
			dec.UseNumber()

			if err := dec.Decode(i); err != nil {
				return errs.Validationf("invalid request body: %w", err)
			}
			return nil
		}
	}

	return cb.defaultBinder.Bind(i, c)
}
