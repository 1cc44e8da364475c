package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Operation is what a request wants to do with a collection.
type Operation string

const (
	OpGet    Operation = "get"
	OpQuery  Operation = "query"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ScopeType is either a coarse grant (read, write) or a single operation.
type ScopeType string

const (
	ScopeRead   ScopeType = "read"
	ScopeWrite  ScopeType = "write"
	ScopeGet    ScopeType = "get"
	ScopeQuery  ScopeType = "query"
	ScopeCreate ScopeType = "create"
	ScopeUpdate ScopeType = "update"
	ScopeDelete ScopeType = "delete"
)

var (
	ReadScopes      = []ScopeType{ScopeGet, ScopeQuery}
	ReadWriteScopes = []ScopeType{ScopeGet, ScopeQuery, ScopeCreate, ScopeUpdate, ScopeDelete}
)

// Permits reports whether a grant of this type allows op.
func (t ScopeType) Permits(op Operation) bool {
	switch t {
	case ScopeRead:
		return op == OpGet || op == OpQuery
	case ScopeWrite:
		return op == OpCreate || op == OpUpdate || op == OpDelete
	case ScopeGet, ScopeQuery, ScopeCreate, ScopeUpdate, ScopeDelete:
		return string(t) == string(op)
	}
	return false
}

func (t ScopeType) Valid() bool {
	switch t {
	case ScopeRead, ScopeWrite, ScopeGet, ScopeQuery, ScopeCreate, ScopeUpdate, ScopeDelete:
		return true
	}
	return false
}

type ClientScope struct {
	Collection string    `json:"collection_name"`
	Type       ScopeType `json:"scope_type"`
}

// Scopes expands a list of scope types into grants on one collection.
func Scopes(collection string, types ...ScopeType) []ClientScope {
	out := make([]ClientScope, 0, len(types))
	for _, t := range types {
		out = append(out, ClientScope{Collection: collection, Type: t})
	}
	return out
}

type AuthorizationType string

const (
	AuthorizationAPIKey        AuthorizationType = "api_key"
	AuthorizationHTTPSignature AuthorizationType = "http_signature"
)

// ClientGrant is the part shared by both authorization variants.
type ClientGrant struct {
	ClientID string        `json:"client_id"`
	Scopes   []ClientScope `json:"client_scopes"`
}

// ClientAuthorization is either a *ClientAuthorizationAPIKey or a
// *ClientAuthorizationHTTPSignature.
type ClientAuthorization interface {
	Grant() ClientGrant
	Type() AuthorizationType
	isClientAuthorization()
}

type ClientAuthorizationAPIKey struct {
	ClientGrant
	KeyID            string   `json:"key_id"`
	AdditionalKeyIDs []string `json:"additional_key_ids,omitempty"`
}

type ClientAuthorizationHTTPSignature struct {
	ClientGrant
	PublicKey string `json:"public_key"`
}

func (a *ClientAuthorizationAPIKey) Grant() ClientGrant      { return a.ClientGrant }
func (a *ClientAuthorizationAPIKey) Type() AuthorizationType { return AuthorizationAPIKey }
func (*ClientAuthorizationAPIKey) isClientAuthorization()    {}

// KeyIDs lists the primary key id followed by the rotation ids.
func (a *ClientAuthorizationAPIKey) KeyIDs() []string {
	ids := make([]string, 0, 1+len(a.AdditionalKeyIDs))
	if a.KeyID != "" {
		ids = append(ids, a.KeyID)
	}
	return append(ids, a.AdditionalKeyIDs...)
}

func (a *ClientAuthorizationHTTPSignature) Grant() ClientGrant      { return a.ClientGrant }
func (a *ClientAuthorizationHTTPSignature) Type() AuthorizationType { return AuthorizationHTTPSignature }
func (*ClientAuthorizationHTTPSignature) isClientAuthorization()    {}

// AuthorizationEnvelope carries a ClientAuthorization through encoding/json
// with a "type" discriminator next to the variant's fields.
type AuthorizationEnvelope struct {
	ClientAuthorization
}

func (e AuthorizationEnvelope) MarshalJSON() ([]byte, error) {
	if e.ClientAuthorization == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(e.ClientAuthorization)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(e.ClientAuthorization.Type())
	return json.Marshal(fields)
}

func (e *AuthorizationEnvelope) UnmarshalJSON(b []byte) error {
	var head struct {
		Type AuthorizationType `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}

	var target ClientAuthorization
	switch head.Type {
	case AuthorizationAPIKey:
		target = new(ClientAuthorizationAPIKey)
	case AuthorizationHTTPSignature:
		target = new(ClientAuthorizationHTTPSignature)
	default:
		return fmt.Errorf("unknown client authorization type %q", head.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(target); err != nil {
		return err
	}
	e.ClientAuthorization = target
	return nil
}
