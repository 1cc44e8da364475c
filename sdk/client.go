// Package sdk is the Go client for the scopedb http api. Requests are built
// by the generated client in sdk/openapi; this package adds authentication,
// error mapping and typed documents on top.
package sdk

import (
	"bytes"
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/predicate"
	"github.com/aep/scopedb/sdk/openapi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	api  *openapi.Client
	http *http.Client
	auth openapi.RequestEditorFn
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithAPIKey(keyID, secret string) Option {
	return func(c *Client) {
		c.auth = func(_ context.Context, r *http.Request) error {
			r.Header.Set(authz.HeaderAPIKeyID, keyID)
			r.Header.Set(authz.HeaderAPIKey, secret)
			return nil
		}
	}
}

func WithAdmin(username, password string) Option {
	return func(c *Client) {
		c.auth = func(_ context.Context, r *http.Request) error {
			r.SetBasicAuth(username, password)
			return nil
		}
	}
}

// WithSignature signs every request with key on behalf of clientID.
func WithSignature(clientID string, key crypto.PrivateKey) Option {
	return func(c *Client) {
		c.auth = func(_ context.Context, r *http.Request) error {
			body, err := requestBody(r)
			if err != nil {
				return err
			}
			return sign(r, body, clientID, key, time.Now())
		}
	}
}

// requestBody returns a copy of the body the generated client attached, or
// nil for requests without one.
func requestBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody || r.GetBody == nil {
		return nil, nil
	}
	rc, err := r.GetBody()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", server)
	}

	c := &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}

	c.api, err = openapi.NewClient(server,
		openapi.WithHTTPClient(c.http),
		openapi.WithRequestEditorFn(c.edit),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) edit(ctx context.Context, r *http.Request) error {
	r.Header.Set("Accept", "application/json")
	if c.auth == nil {
		return nil
	}
	return c.auth(ctx, r)
}

// decode reads a response of the generated client into out. Non-2xx answers
// become *Error; out may be nil when the body is of no interest.
func decode(rsp *http.Response, err error, out any) error {
	if err != nil {
		return err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return parseError(rsp)
	}
	if out == nil || rsp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, rsp.Body)
		return nil
	}

	dec := json.NewDecoder(rsp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

// jsonBody marshals values that are not api types, like typed documents.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

const contentJSON = "application/json"

func pageParams(limit *int, cursor *string) *openapi.GetAllParams {
	return &openapi.GetAllParams{Limit: limit, Cursor: cursor}
}

func queryRequest(p predicate.Predicate, limit *int, cursor *string) api.QueryRequest {
	return api.QueryRequest{
		Matches: predicate.Node{Predicate: p},
		Limit:   limit,
		Cursor:  cursor,
	}
}

func (c *Client) CreateCollection(ctx context.Context, col api.Collection) (*api.Collection, error) {
	var out api.Collection
	rsp, err := c.api.CreateCollection(ctx, col)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]api.Collection, error) {
	var out []api.Collection
	rsp, err := c.api.ListCollections(ctx)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCollection(ctx context.Context, name string) (*api.Collection, error) {
	var out api.Collection
	rsp, err := c.api.GetCollection(ctx, name)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	rsp, err := c.api.DeleteCollection(ctx, name)
	return decode(rsp, err, nil)
}

func (c *Client) CreateIndex(ctx context.Context, idx api.Index) (*api.Index, error) {
	var out api.Index
	rsp, err := c.api.CreateIndex(ctx, idx)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListIndexes(ctx context.Context, collection string) ([]api.Index, error) {
	var out []api.Index
	rsp, err := c.api.ListIndexes(ctx, collection)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteIndex(ctx context.Context, collection, uid string) error {
	rsp, err := c.api.DeleteIndex(ctx, collection, uid)
	return decode(rsp, err, nil)
}

func (c *Client) CreateClientAuthorization(ctx context.Context, a api.ClientAuthorization) (api.ClientAuthorization, error) {
	var out api.AuthorizationEnvelope
	rsp, err := c.api.CreateClientAuthorization(ctx, api.AuthorizationEnvelope{ClientAuthorization: a})
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return out.ClientAuthorization, nil
}

func (c *Client) GetClientAuthorization(ctx context.Context, clientID string) (api.ClientAuthorization, error) {
	return c.getClientAuthorization(ctx, clientID, "")
}

func (c *Client) GetClientAuthorizationAPIKey(ctx context.Context, clientID string) (*api.ClientAuthorizationAPIKey, error) {
	a, err := c.getClientAuthorization(ctx, clientID, api.AuthorizationAPIKey)
	if err != nil {
		return nil, err
	}
	out, ok := a.(*api.ClientAuthorizationAPIKey)
	if !ok {
		return nil, &Error{Code: http.StatusNotFound, Message: "client " + clientID + " has no api key authorization"}
	}
	return out, nil
}

func (c *Client) GetClientAuthorizationHTTPSignature(ctx context.Context, clientID string) (*api.ClientAuthorizationHTTPSignature, error) {
	a, err := c.getClientAuthorization(ctx, clientID, api.AuthorizationHTTPSignature)
	if err != nil {
		return nil, err
	}
	out, ok := a.(*api.ClientAuthorizationHTTPSignature)
	if !ok {
		return nil, &Error{Code: http.StatusNotFound, Message: "client " + clientID + " has no http signature authorization"}
	}
	return out, nil
}

func (c *Client) getClientAuthorization(ctx context.Context, clientID string, typ api.AuthorizationType) (api.ClientAuthorization, error) {
	params := &openapi.GetClientAuthorizationParams{}
	if typ != "" {
		t := string(typ)
		params.Type = &t
	}
	var out api.AuthorizationEnvelope
	rsp, err := c.api.GetClientAuthorization(ctx, clientID, params)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return out.ClientAuthorization, nil
}

func (c *Client) UpdateClientAuthorization(ctx context.Context, clientID string, a api.ClientAuthorization) (api.ClientAuthorization, error) {
	var out api.AuthorizationEnvelope
	rsp, err := c.api.UpdateClientAuthorization(ctx, clientID, api.AuthorizationEnvelope{ClientAuthorization: a})
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return out.ClientAuthorization, nil
}

func (c *Client) DeleteClientAuthorization(ctx context.Context, clientID string) error {
	rsp, err := c.api.DeleteClientAuthorization(ctx, clientID)
	return decode(rsp, err, nil)
}

func (c *Client) CreateDocument(ctx context.Context, collection string, doc any) (api.Document, error) {
	var out api.Document
	if err := c.createDocument(ctx, collection, doc, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) createDocument(ctx context.Context, collection string, doc any, out any) error {
	body, err := jsonBody(doc)
	if err != nil {
		return err
	}
	rsp, err := c.api.CreateDocumentWithBody(ctx, collection, contentJSON, body)
	return decode(rsp, err, out)
}

func (c *Client) GetDocument(ctx context.Context, collection, id string) (api.Document, error) {
	var out api.Document
	rsp, err := c.api.GetDocument(ctx, collection, id)
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateDocument(ctx context.Context, collection, id string, doc any) (api.Document, error) {
	var out api.Document
	if err := c.updateDocument(ctx, collection, id, doc, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) updateDocument(ctx context.Context, collection, id string, doc any, out any) error {
	body, err := jsonBody(doc)
	if err != nil {
		return err
	}
	rsp, err := c.api.UpdateDocumentWithBody(ctx, collection, id, contentJSON, body)
	return decode(rsp, err, out)
}

func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	rsp, err := c.api.DeleteDocument(ctx, collection, id)
	return decode(rsp, err, nil)
}

func (c *Client) GetAll(ctx context.Context, collection string, limit *int, cursor *string) (*api.PaginatedResult, error) {
	var out api.PaginatedResult
	rsp, err := c.api.GetAll(ctx, collection, pageParams(limit, cursor))
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query runs p against a collection. A nil p matches every document.
func (c *Client) Query(ctx context.Context, collection string, p predicate.Predicate, limit *int, cursor *string) (*api.PaginatedResult, error) {
	var out api.PaginatedResult
	rsp, err := c.api.QueryDocuments(ctx, collection, queryRequest(p, limit, cursor))
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
