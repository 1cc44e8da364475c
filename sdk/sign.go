package sdk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"time"

	"github.com/aep/scopedb/authz"
	"github.com/go-fed/httpsig"
)

func algorithm(key crypto.PrivateKey) (httpsig.Algorithm, error) {
	switch key.(type) {
	case ed25519.PrivateKey:
		return httpsig.ED25519, nil
	case *rsa.PrivateKey:
		return httpsig.RSA_SHA256, nil
	case *ecdsa.PrivateKey:
		return httpsig.ECDSA_SHA256, nil
	}
	return "", fmt.Errorf("unsupported signing key %T", key)
}

// sign adds Date, Digest and Signature headers. httpsig signers are not safe
// for concurrent use, so every request gets its own.
func sign(r *http.Request, body []byte, clientID string, key crypto.PrivateKey, now time.Time) error {
	algo, err := algorithm(key)
	if err != nil {
		return err
	}

	r.Header.Set("Date", now.UTC().Format(http.TimeFormat))
	r.Header.Set("Host", r.Host)

	headers := append([]string(nil), authz.SignedHeaders...)
	if body != nil {
		headers = append(headers, "digest")
	}
	signer, _, err := httpsig.NewSigner([]httpsig.Algorithm{algo}, httpsig.DigestSha256, headers, httpsig.Signature, 0)
	if err != nil {
		return err
	}
	return signer.SignRequest(key, clientID, r, body)
}

// ParsePrivateKey reads a PEM encoded PKCS#8, PKCS#1 or SEC 1 private key.
func ParsePrivateKey(pemBytes []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	}
	return x509.ParsePKCS8PrivateKey(block.Bytes)
}
