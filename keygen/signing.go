package keygen

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/aep/scopedb/api"
	"sigs.k8s.io/yaml"
)

type Algorithm string

const (
	Ed25519 Algorithm = "ed25519"
	RSA     Algorithm = "rsa"
	ECDSA   Algorithm = "ecdsa"
)

func encodePrivate(key crypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func encodePublic(key crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// SigningKey generates a key pair for http signature clients, PEM encoded
// as PKCS#8 and PKIX.
func SigningKey(algo Algorithm) (private, public []byte, err error) {
	var (
		priv crypto.PrivateKey
		pub  crypto.PublicKey
	)
	switch algo {
	case Ed25519:
		pub, priv, err = ed25519.GenerateKey(rand.Reader)
	case RSA:
		var k *rsa.PrivateKey
		k, err = rsa.GenerateKey(rand.Reader, 3072)
		if err == nil {
			priv, pub = k, &k.PublicKey
		}
	case ECDSA:
		var k *ecdsa.PrivateKey
		k, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err == nil {
			priv, pub = k, &k.PublicKey
		}
	default:
		return nil, nil, fmt.Errorf("unknown algorithm %q", algo)
	}
	if err != nil {
		return nil, nil, err
	}

	private, err = encodePrivate(priv)
	if err != nil {
		return nil, nil, err
	}
	public, err = encodePublic(pub)
	if err != nil {
		return nil, nil, err
	}
	return private, public, nil
}

// Manifest renders an apply file entry registering public for clientID.
func Manifest(clientID string, public []byte, scopes []api.ClientScope) ([]byte, error) {
	auth := api.AuthorizationEnvelope{ClientAuthorization: &api.ClientAuthorizationHTTPSignature{
		ClientGrant: api.ClientGrant{ClientID: clientID, Scopes: scopes},
		PublicKey:   string(public),
	}}
	js, err := auth.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out, err := yaml.JSONToYAML(js)
	if err != nil {
		return nil, err
	}
	return append([]byte("kind: authorization\n"), out...), nil
}
