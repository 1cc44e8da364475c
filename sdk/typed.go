package sdk

import (
	"context"
	"iter"

	"github.com/aep/scopedb/predicate"
)

// Page is api.PaginatedResult with the documents decoded into T.
type Page[T any] struct {
	Data       []T     `json:"data"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

// TypedClient reads and writes the documents of one collection as T.
type TypedClient[T any] struct {
	*Client
	Collection string
}

func Typed[T any](c *Client, collection string) *TypedClient[T] {
	return &TypedClient[T]{Client: c, Collection: collection}
}

func (c *TypedClient[T]) Create(ctx context.Context, doc *T) (*T, error) {
	out := new(T)
	if err := c.createDocument(ctx, c.Collection, doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TypedClient[T]) Get(ctx context.Context, id string) (*T, error) {
	out := new(T)
	rsp, err := c.api.GetDocument(ctx, c.Collection, id)
	if err := decode(rsp, err, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TypedClient[T]) Update(ctx context.Context, id string, doc *T) (*T, error) {
	out := new(T)
	if err := c.updateDocument(ctx, c.Collection, id, doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TypedClient[T]) Delete(ctx context.Context, id string) error {
	return c.DeleteDocument(ctx, c.Collection, id)
}

func (c *TypedClient[T]) GetAll(ctx context.Context, limit *int, cursor *string) (*Page[T], error) {
	var out Page[T]
	rsp, err := c.api.GetAll(ctx, c.Collection, pageParams(limit, cursor))
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *TypedClient[T]) Query(ctx context.Context, p predicate.Predicate, limit *int, cursor *string) (*Page[T], error) {
	var out Page[T]
	rsp, err := c.api.QueryDocuments(ctx, c.Collection, queryRequest(p, limit, cursor))
	if err := decode(rsp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// All follows cursors until the result set is exhausted. Iteration stops at
// the first error, which is yielded.
func (c *TypedClient[T]) All(ctx context.Context, p predicate.Predicate) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		var cursor *string
		for {
			page, err := c.Query(ctx, p, nil, cursor)
			if err != nil {
				yield(nil, err)
				return
			}
			for i := range page.Data {
				if !yield(&page.Data[i], nil) {
					return
				}
			}
			if !page.HasMore || page.NextCursor == nil {
				return
			}
			cursor = page.NextCursor
		}
	}
}
