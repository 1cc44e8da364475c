package client

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/bus"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/engine"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/page"
	"github.com/aep/scopedb/sdk"
	"github.com/aep/scopedb/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const bookstore = `kind: collection
name: book
id_key: isbn
---
kind: index
collection: book
name: book__author
conditions: [author]
---
kind: authorization
type: api_key
client_id: shop
key_id: shop-key
client_scopes:
  - collection_name: book
    scope_type: read
---
kind: document
collection: book
data:
  isbn: "0393039765"
  title: Fight Club
  author: Chuck Palhaniuk
  pages: 208
`

func TestParseManifests(t *testing.T) {
	ms, err := parseManifests([]byte(bookstore))
	require.NoError(t, err)
	require.Len(t, ms, 4)
	assert.Equal(t, []Kind{KindCollection, KindIndex, KindAuthorization, KindDocument},
		[]Kind{ms[0].Kind, ms[1].Kind, ms[2].Kind, ms[3].Kind})

	var doc documentManifest
	require.NoError(t, decode(ms[3].Body, &doc))
	assert.Equal(t, json.Number("208"), doc.Data["pages"])
	assert.Equal(t, "0393039765", doc.Data["isbn"])
}

func TestParseManifestsRejects(t *testing.T) {
	for _, in := range []string{
		"name: book\n",
		"kind: table\nname: book\n",
		"kind: [\n",
	} {
		_, err := parseManifests([]byte(in))
		assert.Error(t, err, in)
	}
}

func testClient(t *testing.T) *sdk.Client {
	store, err := kv.NewMemPebble()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	bs, err := bus.NewSolo()
	require.NoError(t, err)
	t.Cleanup(bs.Close)

	cat, err := catalog.New(store, bs, time.Minute)
	require.NoError(t, err)
	t.Cleanup(cat.Close)

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	shopHash, err := bcrypt.GenerateFromPassword([]byte("shop-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	az, err := authz.New(store, cat, authz.Config{
		AdminUsername:     "admin",
		AdminPasswordHash: string(adminHash),
		APIKeys:           map[string]string{"shop-key": string(shopHash)},
	})
	require.NoError(t, err)
	t.Cleanup(az.Close)

	en := engine.New(store, cat, page.Options{DefaultSize: 20, MaxSize: 100})
	ts := httptest.NewServer(server.NewHandler(store, cat, en, az))
	t.Cleanup(ts.Close)

	c, err := sdk.New(ts.URL, sdk.WithAdmin("admin", "admin-secret"))
	require.NoError(t, err)
	return c
}

func TestApplyIsRepeatable(t *testing.T) {
	c := testClient(t)
	ctx := t.Context()

	ms, err := parseManifests([]byte(bookstore))
	require.NoError(t, err)

	var first []string
	for _, m := range ms {
		status, err := apply(ctx, c, m)
		require.NoError(t, err)
		first = append(first, status)
	}
	assert.Equal(t, "collection/book created", first[0])
	assert.Contains(t, first[1], "index/book__author created")
	assert.Equal(t, "authorization/shop created", first[2])
	assert.Equal(t, "book/0393039765 created", first[3])

	var second []string
	for _, m := range ms {
		status, err := apply(ctx, c, m)
		require.NoError(t, err)
		second = append(second, status)
	}
	assert.Equal(t, []string{
		"collection/book unchanged",
		"index/book__author unchanged",
		"authorization/shop configured",
		"book/0393039765 configured",
	}, second)

	idx, err := c.ListIndexes(ctx, "book")
	require.NoError(t, err)
	assert.Len(t, idx, 1)

	doc, err := c.GetDocument(ctx, "book", "0393039765")
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", doc["title"])
	assert.Equal(t, json.Number("208"), doc["pages"])
}

func TestSplitPath(t *testing.T) {
	col, id, err := splitPath("book/42")
	require.NoError(t, err)
	assert.Equal(t, "book", col)
	assert.Equal(t, "42", id)

	for _, in := range []string{"book", "/42", "book/"} {
		_, _, err := splitPath(in)
		assert.Error(t, err, in)
	}
}
