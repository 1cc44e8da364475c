// Package keygen issues the key material a deployment needs: a CA with
// server and client certificates for mTLS, and key pairs for http
// signature clients.
package keygen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aep/scopedb/api"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

var (
	dir    string
	algo   string
	scopes []string

	CMD = &cobra.Command{
		Use:   "keygen",
		Short: "Generate certificates and signing keys",
	}

	tlsCmd = &cobra.Command{
		Use:   "tls [dns_name1] [dns_name2] ...",
		Short: "Issue a certificate from a local CA, creating the CA on first use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return TLS(dir, args)
		},
	}

	signingCmd = &cobra.Command{
		Use:   "signing [client_id]",
		Short: "Generate an http signature key pair and its authorization manifest",
		Args:  cobra.ExactArgs(1),
		RunE:  signing,
	}
)

func init() {
	CMD.PersistentFlags().StringVarP(&dir, "dir", "d", ".", "output directory")
	signingCmd.Flags().StringVar(&algo, "algorithm", string(Ed25519), "ed25519, rsa or ecdsa")
	signingCmd.Flags().StringSliceVar(&scopes, "scope", nil, "collection:scope_type grant, repeatable")

	CMD.AddCommand(tlsCmd)
	CMD.AddCommand(signingCmd)
}

func parseScopes(in []string) ([]api.ClientScope, error) {
	out := make([]api.ClientScope, 0, len(in))
	for _, s := range in {
		col, typ, ok := strings.Cut(s, ":")
		if !ok || col == "" || !api.ScopeType(typ).Valid() {
			return nil, fmt.Errorf("invalid scope %q, expected collection:scope_type", s)
		}
		out = append(out, api.ClientScope{Collection: col, Type: api.ScopeType(typ)})
	}
	return out, nil
}

func signing(cmd *cobra.Command, args []string) error {
	clientID := args[0]
	grants, err := parseScopes(scopes)
	if err != nil {
		return err
	}

	private, public, err := SigningKey(Algorithm(algo))
	if err != nil {
		return err
	}
	manifest, err := Manifest(clientID, public, grants)
	if err != nil {
		return err
	}

	base := filepath.Join(dir, clientID)
	if err := os.WriteFile(base+".key", private, 0o600); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	if err := os.WriteFile(base+".pub", public, 0o644); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	if err := os.WriteFile(base+".yaml", manifest, 0o644); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	log.Info("signing key created", "client", clientID, "algorithm", algo, "key", base+".key", "manifest", base+".yaml")
	return nil
}
