package server

import (
	"net/http"

	"github.com/aep/scopedb/api"
	"github.com/labstack/echo/v4"
)

func (s *server) CreateClientAuthorization(c echo.Context) error {
	var env api.AuthorizationEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	out, err := s.authz.Create(c.Request().Context(), env.ClientAuthorization)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, api.AuthorizationEnvelope{ClientAuthorization: out})
}

// GetClientAuthorization answers with the record of either type. The
// ?type= filter asks for one type and turns the other into a 404.
func (s *server) GetClientAuthorization(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var (
		out api.ClientAuthorization
		err error
	)
	switch api.AuthorizationType(c.QueryParam("type")) {
	case api.AuthorizationAPIKey:
		out, err = s.authz.GetAPIKey(ctx, id)
	case api.AuthorizationHTTPSignature:
		out, err = s.authz.GetHTTPSignature(ctx, id)
	case "":
		out, err = s.authz.Get(ctx, id)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown authorization type "+c.QueryParam("type"))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.AuthorizationEnvelope{ClientAuthorization: out})
}

func (s *server) UpdateClientAuthorization(c echo.Context) error {
	var env api.AuthorizationEnvelope
	if err := c.Bind(&env); err != nil {
		return err
	}
	out, err := s.authz.Update(c.Request().Context(), c.Param("id"), env.ClientAuthorization)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.AuthorizationEnvelope{ClientAuthorization: out})
}

func (s *server) DeleteClientAuthorization(c echo.Context) error {
	if err := s.authz.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
