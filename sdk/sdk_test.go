package sdk

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/bus"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/engine"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/page"
	"github.com/aep/scopedb/predicate"
	"github.com/aep/scopedb/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type Book struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Rating string `json:"rating"`
}

func hash(t *testing.T, secret string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func startServer(t *testing.T) string {
	store, err := kv.NewMemPebble()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	bs, err := bus.NewSolo()
	require.NoError(t, err)
	t.Cleanup(bs.Close)

	cat, err := catalog.New(store, bs, time.Minute)
	require.NoError(t, err)
	t.Cleanup(cat.Close)

	az, err := authz.New(store, cat, authz.Config{
		AdminUsername:     "admin",
		AdminPasswordHash: hash(t, "admin-secret"),
		APIKeys: map[string]string{
			"reader-key": hash(t, "reader-secret"),
			"writer-key": hash(t, "writer-secret"),
		},
	})
	require.NoError(t, err)
	t.Cleanup(az.Close)

	en := engine.New(store, cat, page.Options{DefaultSize: 2, MaxSize: 10})
	ts := httptest.NewServer(server.NewHandler(store, cat, en, az))
	t.Cleanup(ts.Close)
	return ts.URL
}

func newClient(t *testing.T, url string, opts ...Option) *Client {
	c, err := New(url, opts...)
	require.NoError(t, err)
	return c
}

func seed(t *testing.T, admin *Client) {
	ctx := t.Context()
	_, err := admin.CreateCollection(ctx, api.Collection{Name: "book", IDKey: "isbn"})
	require.NoError(t, err)

	idx, err := admin.CreateIndex(ctx, api.Index{
		Collection: api.Collection{Name: "book"},
		Name:       "book__author",
		Conditions: []string{"author"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, idx.UID)

	for _, a := range []api.ClientAuthorization{
		&api.ClientAuthorizationAPIKey{
			ClientGrant: api.ClientGrant{ClientID: "reader", Scopes: []api.ClientScope{{Collection: "book", Type: api.ScopeRead}}},
			KeyID:       "reader-key",
		},
		&api.ClientAuthorizationAPIKey{
			ClientGrant: api.ClientGrant{ClientID: "writer", Scopes: api.Scopes("book", api.ReadWriteScopes...)},
			KeyID:       "writer-key",
		},
	} {
		_, err := admin.CreateClientAuthorization(ctx, a)
		require.NoError(t, err)
	}
}

func TestClientRoundTrip(t *testing.T) {
	url := startServer(t)
	ctx := t.Context()
	admin := newClient(t, url, WithAdmin("admin", "admin-secret"))
	seed(t, admin)

	writer := Typed[Book](newClient(t, url, WithAPIKey("writer-key", "writer-secret")), "book")
	for _, b := range []Book{
		{ISBN: "1", Title: "Fight Club", Author: "Chuck Palhaniuk", Rating: "08"},
		{ISBN: "2", Title: "Choke", Author: "Chuck Palhaniuk", Rating: "07"},
		{ISBN: "3", Title: "Filth", Author: "Irvine Welsh", Rating: "06"},
		{ISBN: "4", Title: "Survivor", Author: "Chuck Palhaniuk", Rating: "06"},
		{ISBN: "5", Title: "Pulp", Author: "Charles Bukowski", Rating: "05"},
	} {
		out, err := writer.Create(ctx, &b)
		require.NoError(t, err)
		assert.Equal(t, b, *out)
	}

	_, err := writer.Create(ctx, &Book{ISBN: "1"})
	assert.True(t, IsConflict(err), "%v", err)

	reader := Typed[Book](newClient(t, url, WithAPIKey("reader-key", "reader-secret")), "book")

	got, err := reader.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Filth", got.Title)

	var titles []string
	for b, err := range reader.All(ctx, predicate.Eq{Field: "author", Value: "Chuck Palhaniuk"}) {
		require.NoError(t, err)
		titles = append(titles, b.Title)
	}
	assert.ElementsMatch(t, []string{"Fight Club", "Choke", "Survivor"}, titles)

	first, err := reader.GetAll(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, first.Data, 2)
	assert.True(t, first.HasMore)
	require.NotNil(t, first.NextCursor)

	_, err = reader.Create(ctx, &Book{ISBN: "6"})
	assert.True(t, IsForbidden(err))
	assert.True(t, errors.Is(err, errs.ErrForbidden))

	updated, err := writer.Update(ctx, "3", &Book{ISBN: "3", Title: "Filth", Author: "Irvine Welsh", Rating: "09"})
	require.NoError(t, err)
	assert.Equal(t, "09", updated.Rating)

	res, err := reader.Query(ctx, predicate.Range{Field: "rating", From: "08", To: "09"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)

	require.NoError(t, writer.Delete(ctx, "3"))
	_, err = reader.Get(ctx, "3")
	assert.True(t, IsNotFound(err))
}

func TestClientAdminRoutes(t *testing.T) {
	url := startServer(t)
	ctx := t.Context()
	admin := newClient(t, url, WithAdmin("admin", "admin-secret"))
	seed(t, admin)

	cols, err := admin.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "book", cols[0].Name)

	idx, err := admin.ListIndexes(ctx, "book")
	require.NoError(t, err)
	require.Len(t, idx, 1)

	key, err := admin.GetClientAuthorizationAPIKey(ctx, "reader")
	require.NoError(t, err)
	assert.Equal(t, "reader-key", key.KeyID)

	_, err = admin.GetClientAuthorizationHTTPSignature(ctx, "reader")
	assert.True(t, IsNotFound(err))

	key.Scopes = api.Scopes("book", api.ScopeRead, api.ScopeCreate)
	_, err = admin.UpdateClientAuthorization(ctx, "reader", key)
	require.NoError(t, err)

	reader := newClient(t, url, WithAPIKey("reader-key", "reader-secret"))
	_, err = reader.CreateDocument(ctx, "book", map[string]any{"isbn": "9", "title": "Junky"})
	require.NoError(t, err)

	_, err = reader.ListCollections(ctx)
	assert.True(t, IsForbidden(err))

	require.NoError(t, admin.DeleteClientAuthorization(ctx, "reader"))
	_, err = reader.GetDocument(ctx, "book", "9")
	assert.True(t, IsUnauthenticated(err), "%v", err)

	require.NoError(t, admin.DeleteIndex(ctx, "book", idx[0].UID))
	require.NoError(t, admin.DeleteCollection(ctx, "book"))
	_, err = admin.GetCollection(ctx, "book")
	assert.True(t, IsNotFound(err))
}

func TestClientSignature(t *testing.T) {
	url := startServer(t)
	ctx := t.Context()
	admin := newClient(t, url, WithAdmin("admin", "admin-secret"))
	seed(t, admin)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	_, err = admin.CreateClientAuthorization(ctx, &api.ClientAuthorizationHTTPSignature{
		ClientGrant: api.ClientGrant{ClientID: "signer", Scopes: api.Scopes("book", api.ScopeRead, api.ScopeWrite)},
		PublicKey:   string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
	})
	require.NoError(t, err)

	key, err := ParsePrivateKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	require.NoError(t, err)

	signer := newClient(t, url, WithSignature("signer", key))
	doc, err := signer.CreateDocument(ctx, "book", map[string]any{"isbn": "42", "title": "Hitchhiker"})
	require.NoError(t, err)
	assert.Equal(t, "Hitchhiker", doc["title"])

	res, err := signer.Query(ctx, "book", nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)

	_, other, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	impostor := newClient(t, url, WithSignature("signer", other))
	_, err = impostor.GetDocument(ctx, "book", "42")
	assert.True(t, IsUnauthenticated(err), "%v", err)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost")
	assert.Error(t, err)
	_, err = New("://")
	assert.Error(t, err)
}

func TestParsePrivateKeyRejects(t *testing.T) {
	_, err := ParsePrivateKey([]byte("not a key"))
	assert.Error(t, err)
}
