package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

const (
	caKeyFile  = "ca.key"
	caCertFile = "ca.crt"
)

// secretYAML renders a kubernetes secret carrying the pair and the CA, in
// the shape the server's --server-cert, --server-key and --ca-cert mount.
func secretYAML(name string, keyPEM, certPEM, caPEM []byte) ([]byte, error) {
	return yaml.Marshal(map[string]any{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   map[string]any{"name": name},
		"type":       "kubernetes.io/tls",
		// []byte marshals as base64, which is what data wants
		"data": map[string][]byte{
			"tls.crt": certPEM,
			"tls.key": keyPEM,
			"ca.crt":  caPEM,
		},
	})
}

// TLS writes ca.key and ca.crt to dir unless they exist, then issues a
// certificate for dnsNames signed by that CA. The certificate is valid for
// both server and client auth, so the same command issues mTLS client certs.
func TLS(dir string, dnsNames []string) error {
	if len(dnsNames) == 0 {
		return fmt.Errorf("at least one dns name is required")
	}

	caKey, caCert, err := loadOrCreateCA(dir)
	if err != nil {
		return fmt.Errorf("ca: %w", err)
	}
	caCertPEM, err := os.ReadFile(filepath.Join(dir, caCertFile))
	if err != nil {
		return fmt.Errorf("failed to read CA certificate: %w", err)
	}

	return issue(dir, caKey, caCert, dnsNames, caCertPEM)
}

func loadOrCreateCA(dir string) (ed25519.PrivateKey, *x509.Certificate, error) {
	_, keyErr := os.Stat(filepath.Join(dir, caKeyFile))
	_, certErr := os.Stat(filepath.Join(dir, caCertFile))
	if keyErr == nil && certErr == nil {
		log.Info("loading existing CA", "dir", dir)
		return loadCA(dir)
	}
	log.Info("creating new CA", "dir", dir)
	return createCA(dir)
}

func loadCA(dir string) (ed25519.PrivateKey, *x509.Certificate, error) {
	keyPEM, err := os.ReadFile(filepath.Join(dir, caKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA key: %w", err)
	}
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, nil, fmt.Errorf("failed to parse CA key PEM")
	}
	caKey, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA key: %w", err)
	}
	edKey, ok := caKey.(ed25519.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("private key is not an Ed25519 key")
	}

	certPEM, err := os.ReadFile(filepath.Join(dir, caCertFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, nil, fmt.Errorf("failed to parse CA cert PEM")
	}
	caCert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA cert: %w", err)
	}

	return edKey, caCert, nil
}

func serial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	return n, nil
}

func createCA(dir string) (ed25519.PrivateKey, *x509.Certificate, error) {
	_, caKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate CA private key: %w", err)
	}
	caKeyPEM, err := encodePrivate(caKey)
	if err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, caKeyFile), caKeyPEM, 0o600); err != nil {
		return nil, nil, fmt.Errorf("failed to save CA private key: %w", err)
	}

	serialNumber, err := serial()
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"scopedb"},
			CommonName:   "scopedb CA",
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, caKey.Public(), caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(filepath.Join(dir, caCertFile), certPEM, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to save CA certificate: %w", err)
	}

	caCert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse created CA certificate: %w", err)
	}
	return caKey, caCert, nil
}

func issue(dir string, caKey ed25519.PrivateKey, caCert *x509.Certificate, dnsNames []string, caCertPEM []byte) error {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate certificate key: %w", err)
	}

	serialNumber, err := serial()
	if err != nil {
		return err
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"scopedb"},
			CommonName:   dnsNames[0],
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, key.Public(), caKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	keyPEM, err := encodePrivate(key)
	if err != nil {
		return err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	base := filepath.Join(dir, dnsNames[0])
	if err := os.WriteFile(base+".key", keyPEM, 0o600); err != nil {
		return fmt.Errorf("failed to save certificate key: %w", err)
	}
	if err := os.WriteFile(base+".crt", certPEM, 0o644); err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}

	secret, err := secretYAML(strings.ReplaceAll(dnsNames[0], ".", "-")+"-mtls", keyPEM, certPEM, caCertPEM)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+"-tls-secret.yaml", secret, 0o644); err != nil {
		return fmt.Errorf("failed to save kubernetes secret: %w", err)
	}

	log.Info("certificate issued", "names", dnsNames, "cert", base+".crt", "key", base+".key", "secret", base+"-tls-secret.yaml")
	return nil
}
