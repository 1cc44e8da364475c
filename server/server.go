package server

import (
	"net/http"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/engine"
	"github.com/aep/scopedb/kv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type server struct {
	kv      kv.KV
	catalog *catalog.Catalog
	engine  *engine.Engine
	authz   *authz.Engine
}

func newServer(k kv.KV, cat *catalog.Catalog, en *engine.Engine, az *authz.Engine) *server {
	return &server{
		kv:      k,
		catalog: cat,
		engine:  en,
		authz:   az,
	}
}

// NewHandler serves the http api over stores the caller opened and owns.
func NewHandler(k kv.KV, cat *catalog.Catalog, en *engine.Engine, az *authz.Engine) http.Handler {
	return newServer(k, cat, en, az).echo()
}

// echo builds the http api. Every route runs behind an authorization guard.
func (s *server) echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Binder = &Binder{defaultBinder: &echo.DefaultBinder{}}
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit("4M"))
	e.Use(TracingMiddleware)
	e.Use(PrometheusMiddleware)

	admin := e.Group("/admin")
	admin.POST("/collections", s.CreateCollection, s.guardAdmin)
	admin.GET("/collections", s.ListCollections, s.guardAdmin)
	admin.GET("/collections/:name", s.GetCollection, s.guardAdmin)
	admin.DELETE("/collections/:name", s.DeleteCollection, s.guardAdmin)
	admin.POST("/indexes", s.CreateIndex, s.guardAdmin)
	admin.GET("/collections/:name/indexes", s.ListIndexes, s.guardAdmin)
	admin.DELETE("/collections/:name/indexes/:uid", s.DeleteIndex, s.guardAdmin)

	admin.POST("/client_authorizations", s.CreateClientAuthorization, s.guardAdmin)
	admin.GET("/client_authorizations/:id", s.GetClientAuthorization,
		s.guard(func(echo.Context) authz.Request {
			return authz.Request{Collection: catalog.SystemAuthorizations, Operation: api.OpGet}
		}))
	admin.PUT("/client_authorizations/:id", s.UpdateClientAuthorization, s.guardAdmin)
	admin.DELETE("/client_authorizations/:id", s.DeleteClientAuthorization, s.guardAdmin)

	docs := e.Group("/documents")
	docs.POST("/:collection", s.CreateDocument, s.guardCollection(api.OpCreate))
	docs.GET("/:collection", s.GetAll, s.guardCollection(api.OpQuery))
	docs.POST("/:collection/query", s.Query, s.guardCollection(api.OpQuery))
	docs.GET("/:collection/:id", s.GetDocument, s.guardCollection(api.OpGet))
	docs.PUT("/:collection/:id", s.UpdateDocument, s.guardCollection(api.OpUpdate))
	docs.DELETE("/:collection/:id", s.DeleteDocument, s.guardCollection(api.OpDelete))

	return e
}
