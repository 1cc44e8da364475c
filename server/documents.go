package server

import (
	"net/http"
	"strconv"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/errs"
	"github.com/labstack/echo/v4"
)

func (s *server) CreateDocument(c echo.Context) error {
	var doc api.Document
	if err := c.Bind(&doc); err != nil {
		return err
	}
	out, err := s.engine.Create(c.Request().Context(), c.Param("collection"), doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *server) GetDocument(c echo.Context) error {
	out, err := s.engine.Get(c.Request().Context(), c.Param("collection"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) UpdateDocument(c echo.Context) error {
	var doc api.Document
	if err := c.Bind(&doc); err != nil {
		return err
	}
	out, err := s.engine.Update(c.Request().Context(), c.Param("collection"), c.Param("id"), doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) DeleteDocument(c echo.Context) error {
	if err := s.engine.Delete(c.Request().Context(), c.Param("collection"), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) GetAll(c echo.Context) error {
	var limit *int
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errs.Validationf("limit must be an integer")
		}
		limit = &n
	}
	var cursor *string
	if raw := c.QueryParam("cursor"); raw != "" {
		cursor = &raw
	}

	out, err := s.engine.GetAll(c.Request().Context(), c.Param("collection"), limit, cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) Query(c echo.Context) error {
	var req api.QueryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	out, err := s.engine.Query(c.Request().Context(), c.Param("collection"), req.Matches.Predicate, req.Limit, req.Cursor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
