package api

import (
	"github.com/aep/scopedb/predicate"
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldObject  FieldType = "object"
	FieldArray   FieldType = "array"
)

// Field is a schema hint. Documents may carry fields that are not declared.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type,omitempty"`
}

type Collection struct {
	Name string `json:"name"`

	// IDKey is the path of the field holding each document's id. Ids are
	// compared by value, not by spelling: a number and a string holding
	// the same exact decimal are one id, so 7, "7", "07" and "7.0" all name
	// the same document while "9007199254740993" and "9007199254740992"
	// stay apart. Any other string is its own id.
	IDKey  string  `json:"id_key"`
	Fields []Field `json:"fields,omitempty"`
}

type Index struct {
	UID         string     `json:"uid,omitempty"`
	Collection  Collection `json:"collection"`
	Name        string     `json:"name"`
	OrderingKey string     `json:"ordering_key,omitempty"`
	Conditions  []string   `json:"conditions"`
}

type Document = map[string]any

type PaginatedResult struct {
	Data       []Document `json:"data"`
	HasMore    bool       `json:"has_more"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

type QueryRequest struct {
	Matches predicate.Node `json:"matches"`
	Limit   *int           `json:"limit,omitempty"`
	Cursor  *string        `json:"cursor,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
