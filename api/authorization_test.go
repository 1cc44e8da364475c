package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopePermits(t *testing.T) {
	assert.True(t, ScopeRead.Permits(OpGet))
	assert.True(t, ScopeRead.Permits(OpQuery))
	assert.False(t, ScopeRead.Permits(OpCreate))
	assert.True(t, ScopeWrite.Permits(OpDelete))
	assert.False(t, ScopeWrite.Permits(OpQuery))
	assert.True(t, ScopeCreate.Permits(OpCreate))
	assert.False(t, ScopeCreate.Permits(OpUpdate))
	assert.False(t, ScopeType("admin").Permits(OpGet))

	for _, op := range []Operation{OpGet, OpQuery, OpCreate, OpUpdate, OpDelete} {
		permitted := false
		for _, s := range ReadWriteScopes {
			permitted = permitted || s.Permits(op)
		}
		assert.True(t, permitted, op)
	}
}

func TestEnvelopeCarriesType(t *testing.T) {
	in := AuthorizationEnvelope{&ClientAuthorizationAPIKey{
		ClientGrant: ClientGrant{
			ClientID: "books-rw",
			Scopes:   Scopes("book", ReadWriteScopes...),
		},
		KeyID:            "k1",
		AdditionalKeyIDs: []string{"k2"},
	}}

	b, err := json.Marshal(in)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, "api_key", fields["type"])
	assert.Equal(t, "books-rw", fields["client_id"])

	var out AuthorizationEnvelope
	require.NoError(t, json.Unmarshal(b, &out))
	key, ok := out.ClientAuthorization.(*ClientAuthorizationAPIKey)
	require.True(t, ok)
	assert.Equal(t, []string{"k1", "k2"}, key.KeyIDs())
	assert.Len(t, key.Scopes, 5)
}

func TestEnvelopeRejectsUnknownType(t *testing.T) {
	var out AuthorizationEnvelope
	assert.Error(t, json.Unmarshal([]byte(`{"type":"password","client_id":"x"}`), &out))
}
