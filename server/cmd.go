package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/bus"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/config"
	"github.com/aep/scopedb/engine"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/page"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

var CMD = &cobra.Command{
	Use:   "server",
	Short: "start the http api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Main(ctx, cfg)
	},
}

func init() {
	config.Flags(CMD)
}

// Main runs the api until ctx is done.
func Main(ctx context.Context, cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	log = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(log)

	shutdownTracer, err := InitTracer(ctx, cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer shutdownTracer(context.Background())

	store, err := kv.Open(cfg.KV, cfg.PebbleDir, cfg.PDEndpoints)
	if err != nil {
		return fmt.Errorf("kv: %w", err)
	}
	defer store.Close()

	b, err := bus.Open(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	defer b.Close()

	cat, err := catalog.New(store, b, cfg.CacheTTL)
	if err != nil {
		return err
	}
	defer cat.Close()

	az, err := authz.New(store, cat, authz.Config{
		AdminUsername:     cfg.Admin.Username,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		APIKeys:           cfg.APIKeyHashes(),
		MaxClockSkew:      cfg.MaxClockSkew,
	})
	if err != nil {
		return err
	}
	defer az.Close()

	if cfg.Admin.PasswordHash == "" {
		log.Warn("no admin password hash configured, administrative routes are unusable")
	}

	en := engine.New(store, cat, page.Options{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize})
	s := newServer(store, cat, en, az)

	go s.statsd(cfg.MetricsListen)

	e := s.echo()
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tlsConfig, err := serverTLS(cfg)
	if err != nil {
		return err
	}
	srv.TLSConfig = tlsConfig

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Listen, "kv", cfg.KV, "tls", tlsConfig != nil)
		if tlsConfig != nil {
			errc <- srv.ListenAndServeTLS("", "")
		} else {
			errc <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serverTLS loads the server certificate and, with a CA, requires client
// certificates signed by it.
func serverTLS(cfg config.Config) (*tls.Config, error) {
	if cfg.ServerCert == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.ServerCert, cfg.ServerKey)
	if err != nil {
		return nil, fmt.Errorf("server certificate: %w", err)
	}
	tc := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("ca certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca certificate %s holds no certificates", cfg.CACert)
		}
		tc.ClientCAs = pool
		tc.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tc, nil
}
