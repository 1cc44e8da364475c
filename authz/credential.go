package authz

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aep/scopedb/errs"
	"github.com/go-fed/httpsig"
)

const (
	HeaderAPIKeyID = "X-Api-Key-Id"
	HeaderAPIKey   = "X-Api-Key"
)

// SignedHeaders must be covered by every HTTP signature. A request with a
// body must also sign its digest.
var SignedHeaders = []string{httpsig.RequestTarget, "host", "date"}

// Credential is one of APIKey, Signature or Admin.
type Credential interface {
	isCredential()
}

type APIKey struct {
	KeyID  string
	Secret string
}

// Signature is an HTTP message signature whose keyId is the client id.
type Signature struct {
	ClientID string
	verifier httpsig.Verifier
}

type Admin struct {
	Username string
	Password string
}

func (APIKey) isCredential()    {}
func (Signature) isCredential() {}
func (Admin) isCredential()     {}

// Credential extracts the credential presented by r. Exactly one kind of
// credential material may be present. body is the full request body, needed
// to check the signed digest.
func (e *Engine) Credential(r *http.Request, body []byte) (Credential, error) {
	var found []Credential

	if id := r.Header.Get(HeaderAPIKeyID); id != "" {
		found = append(found, APIKey{KeyID: id, Secret: r.Header.Get(HeaderAPIKey)})
	}

	auth := r.Header.Get("Authorization")
	if user, pass, ok := r.BasicAuth(); ok {
		found = append(found, Admin{Username: user, Password: pass})
	}

	sigValue := r.Header.Get("Signature")
	if sigValue == "" && strings.HasPrefix(auth, "Signature ") {
		sigValue = strings.TrimPrefix(auth, "Signature ")
	}
	if sigValue != "" {
		sig, err := e.signature(r, sigValue, body)
		if err != nil {
			return nil, err
		}
		found = append(found, sig)
	}

	switch len(found) {
	case 0:
		return nil, errs.Unauthenticatedf("no credentials presented")
	case 1:
		return found[0], nil
	}
	return nil, errs.Unauthenticatedf("more than one kind of credential presented")
}

func (e *Engine) signature(r *http.Request, value string, body []byte) (Signature, error) {
	signed := signedHeaders(value)
	for _, h := range SignedHeaders {
		if !slices.Contains(signed, h) {
			return Signature{}, errs.Unauthenticatedf("signature must cover %q", h)
		}
	}

	date, err := http.ParseTime(r.Header.Get("Date"))
	if err != nil {
		return Signature{}, errs.Unauthenticatedf("signed request has no valid Date header")
	}
	if skew := e.now().Sub(date).Abs(); skew > e.maxSkew {
		return Signature{}, errs.Unauthenticatedf("request date is %s off", skew.Round(time.Second))
	}

	if len(body) > 0 || r.Header.Get("Digest") != "" {
		if !slices.Contains(signed, "digest") {
			return Signature{}, errs.Unauthenticatedf("signature must cover the body digest")
		}
		if err := checkDigest(r.Header.Get("Digest"), body); err != nil {
			return Signature{}, err
		}
	}

	v, err := httpsig.NewVerifier(r)
	if err != nil {
		return Signature{}, errs.Unauthenticatedf("malformed signature: %w", err)
	}
	if v.KeyId() == "" {
		return Signature{}, errs.Unauthenticatedf("signature has no keyId")
	}
	return Signature{ClientID: v.KeyId(), verifier: v}, nil
}

// signedHeaders reads the headers parameter, which defaults to "date".
func signedHeaders(value string) []string {
	for _, param := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && k == "headers" {
			return strings.Fields(strings.ToLower(strings.Trim(v, `"`)))
		}
	}
	return []string{"date"}
}

var digestHashes = map[string]crypto.Hash{
	string(httpsig.DigestSha256): crypto.SHA256,
	httpsig.DigestSha512:         crypto.SHA512,
}

func checkDigest(header string, body []byte) error {
	for _, part := range strings.Split(header, ",") {
		algo, want, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		h, ok := digestHashes[strings.ToUpper(algo)]
		if !ok {
			continue
		}
		sum := h.New()
		sum.Write(body)
		got := base64.StdEncoding.EncodeToString(sum.Sum(nil))
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			return errs.Unauthenticatedf("body does not match its digest")
		}
		return nil
	}
	return errs.Unauthenticatedf("request has no SHA-256 or SHA-512 Digest header")
}

// ParsePublicKey reads a PEM encoded (or bare base64 DER) PKIX public key
// and returns the signature algorithm it verifies.
func ParsePublicKey(s string) (crypto.PublicKey, httpsig.Algorithm, error) {
	var der []byte
	if block, _ := pem.Decode([]byte(s)); block != nil {
		if block.Type == "RSA PUBLIC KEY" {
			pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, "", err
			}
			return pub, httpsig.RSA_SHA256, nil
		}
		der = block.Bytes
	} else {
		raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace([]byte(s))))
		if err != nil {
			return nil, "", fmt.Errorf("public key is neither PEM nor base64")
		}
		der = raw
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, "", err
	}
	switch pub := pub.(type) {
	case *rsa.PublicKey:
		return pub, httpsig.RSA_SHA256, nil
	case *ecdsa.PublicKey:
		return pub, httpsig.ECDSA_SHA256, nil
	case ed25519.PublicKey:
		return pub, httpsig.ED25519, nil
	}
	return nil, "", fmt.Errorf("unsupported public key type %T", pub)
}
