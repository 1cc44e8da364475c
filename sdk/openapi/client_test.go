package openapi

import (
	"io"
	"net/http"
	"testing"

	"github.com/aep/scopedb/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPaths(t *testing.T) {
	req, err := NewGetDocumentRequest("http://db.local/base", "book", "a/b c")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/base/documents/book/a%2Fb%20c", req.URL.EscapedPath())

	req, err = NewDeleteIndexRequest("http://db.local/", "book", "idx1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/admin/collections/book/indexes/idx1", req.URL.Path)
}

func TestRequestQueryParams(t *testing.T) {
	limit, cursor := 5, "eyJwIjoic2NhbiJ9"
	req, err := NewGetAllRequest("http://db.local", "book", &GetAllParams{Limit: &limit, Cursor: &cursor})
	require.NoError(t, err)
	assert.Equal(t, "5", req.URL.Query().Get("limit"))
	assert.Equal(t, cursor, req.URL.Query().Get("cursor"))

	req, err = NewGetAllRequest("http://db.local", "book", &GetAllParams{})
	require.NoError(t, err)
	assert.Empty(t, req.URL.RawQuery)

	typ := string(api.AuthorizationHTTPSignature)
	req, err = NewGetClientAuthorizationRequest("http://db.local", "reader", &GetClientAuthorizationParams{Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, typ, req.URL.Query().Get("type"))
}

func TestRequestBody(t *testing.T) {
	req, err := NewCreateCollectionRequest("http://db.local", api.Collection{Name: "book", IDKey: "isbn"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.NotNil(t, req.GetBody)

	b, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"book","id_key":"isbn"}`, string(b))
}
