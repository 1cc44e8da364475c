package keygen

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func certificate(t *testing.T, path string) *x509.Certificate {
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func TestTLSChainsToCA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, TLS(dir, []string{"db.local", "localhost"}))

	ca := certificate(t, filepath.Join(dir, caCertFile))
	leaf := certificate(t, filepath.Join(dir, "db.local.crt"))

	roots := x509.NewCertPool()
	roots.AddCert(ca)
	for _, usage := range []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth} {
		_, err := leaf.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: roots, KeyUsages: []x509.ExtKeyUsage{usage}})
		assert.NoError(t, err)
	}

	// a second certificate reuses the CA
	require.NoError(t, TLS(dir, []string{"client.local"}))
	assert.Equal(t, ca.Raw, certificate(t, filepath.Join(dir, caCertFile)).Raw)
	_, err := certificate(t, filepath.Join(dir, "client.local.crt")).Verify(x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	assert.NoError(t, err)

	var secret struct {
		Kind string            `json:"kind"`
		Data map[string][]byte `json:"data"`
	}
	raw, err := os.ReadFile(filepath.Join(dir, "db.local-tls-secret.yaml"))
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(raw, &secret))
	assert.Equal(t, "Secret", secret.Kind)
	key, err := os.ReadFile(filepath.Join(dir, "db.local.key"))
	require.NoError(t, err)
	assert.Equal(t, key, secret.Data["tls.key"])
}

func TestTLSRequiresName(t *testing.T) {
	assert.Error(t, TLS(t.TempDir(), nil))
}

func TestSigningKeysParse(t *testing.T) {
	for _, algo := range []Algorithm{Ed25519, RSA, ECDSA} {
		private, public, err := SigningKey(algo)
		require.NoError(t, err, algo)

		_, err = sdk.ParsePrivateKey(private)
		assert.NoError(t, err, algo)
		_, _, err = authz.ParsePublicKey(string(public))
		assert.NoError(t, err, algo)
	}

	_, _, err := SigningKey("dsa")
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	_, public, err := SigningKey(Ed25519)
	require.NoError(t, err)

	out, err := Manifest("signer", public, api.Scopes("book", api.ScopeRead))
	require.NoError(t, err)

	js, err := yaml.YAMLToJSON(out)
	require.NoError(t, err)
	var env api.AuthorizationEnvelope
	require.NoError(t, env.UnmarshalJSON(js))
	sig, ok := env.ClientAuthorization.(*api.ClientAuthorizationHTTPSignature)
	require.True(t, ok)
	assert.Equal(t, "signer", sig.ClientID)
	assert.Equal(t, string(public), sig.PublicKey)
}

func TestParseScopes(t *testing.T) {
	out, err := parseScopes([]string{"book:read", "author:create"})
	require.NoError(t, err)
	assert.Equal(t, []api.ClientScope{
		{Collection: "book", Type: api.ScopeRead},
		{Collection: "author", Type: api.ScopeCreate},
	}, out)

	for _, in := range []string{"book", ":read", "book:admin"} {
		_, err := parseScopes([]string{in})
		assert.Error(t, err, in)
	}
}
