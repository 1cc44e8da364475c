package aql

import (
	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/predicate"
)

// ToQueryRequest converts a Query to the body of POST /documents/{collection}/query.
func (q *Query) ToQueryRequest() api.QueryRequest {
	return api.QueryRequest{
		Matches: predicate.Node{Predicate: q.Predicate()},
		Limit:   q.Limit,
		Cursor:  q.Cursor,
	}
}
