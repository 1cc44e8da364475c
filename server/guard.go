package server

import (
	"bytes"
	"io"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/authz"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// guard authenticates the caller and checks the request that route makes
// before the handler runs.
func (s *server) guard(route func(echo.Context) authz.Request) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var body []byte
			if req.Body != nil {
				var err error
				body, err = io.ReadAll(req.Body)
				if err != nil {
					return err
				}
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			d := s.authz.DecideHTTP(req, body, route(c))
			if d.Outcome != authz.Authorized {
				return d.Err
			}
			c.Set(identityKey, d.Identity)
			return next(c)
		}
	}
}

func (s *server) guardAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return s.guard(func(echo.Context) authz.Request {
		return authz.Request{Admin: true}
	})(next)
}

func (s *server) guardCollection(op api.Operation) echo.MiddlewareFunc {
	return s.guard(func(c echo.Context) authz.Request {
		return authz.Request{Collection: c.Param("collection"), Operation: op}
	})
}

func identity(c echo.Context) authz.Identity {
	id, _ := c.Get(identityKey).(authz.Identity)
	return id
}
