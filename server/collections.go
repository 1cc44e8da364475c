package server

import (
	"net/http"

	"github.com/aep/scopedb/api"
	"github.com/labstack/echo/v4"
)

func (s *server) CreateCollection(c echo.Context) error {
	var col api.Collection
	if err := c.Bind(&col); err != nil {
		return err
	}
	out, err := s.catalog.Create(c.Request().Context(), col)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *server) ListCollections(c echo.Context) error {
	out, err := s.catalog.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) GetCollection(c echo.Context) error {
	col, err := s.catalog.Resolve(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, col.Collection)
}

func (s *server) DeleteCollection(c echo.Context) error {
	if err := s.catalog.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) CreateIndex(c echo.Context) error {
	var idx api.Index
	if err := c.Bind(&idx); err != nil {
		return err
	}
	out, err := s.catalog.CreateIndex(c.Request().Context(), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *server) ListIndexes(c echo.Context) error {
	out, err := s.catalog.Indexes(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) DeleteIndex(c echo.Context) error {
	if err := s.catalog.DeleteIndex(c.Request().Context(), c.Param("name"), c.Param("uid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
