// Package config reads server settings from flags, SCOPEDB_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Admin struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password-hash"`
}

// APIKey is one entry of the shared-secret store. Listed rather than keyed
// by id because viper lowercases map keys.
type APIKey struct {
	ID   string `mapstructure:"id"`
	Hash string `mapstructure:"hash"`
}

type Config struct {
	Listen        string `mapstructure:"listen"`
	MetricsListen string `mapstructure:"metrics-listen"`

	KV          string   `mapstructure:"kv"`
	PebbleDir   string   `mapstructure:"pebble-dir"`
	PDEndpoints []string `mapstructure:"pd-endpoint"`

	OtelEndpoint string `mapstructure:"otel-endpoint"`
	NatsURL      string `mapstructure:"nats-url"`

	Admin   Admin    `mapstructure:"admin"`
	APIKeys []APIKey `mapstructure:"api-keys"`

	DefaultPageSize int           `mapstructure:"default-page-size"`
	MaxPageSize     int           `mapstructure:"max-page-size"`
	CacheTTL        time.Duration `mapstructure:"cache-ttl"`
	MaxClockSkew    time.Duration `mapstructure:"max-clock-skew"`

	CACert     string `mapstructure:"ca-cert"`
	ServerCert string `mapstructure:"server-cert"`
	ServerKey  string `mapstructure:"server-key"`

	LogLevel string `mapstructure:"log-level"`
}

// Flags registers the server flags on cmd.
func Flags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("config", "", "config file (yaml, toml or json)")
	f.String("listen", ":5052", "address of the http api")
	f.String("metrics-listen", ":27667", "address of /healthz and /metrics")
	f.String("kv", "pebble", "storage engine: pebble, pebble-mem or tikv")
	f.String("pebble-dir", "pebble-db", "pebble data directory")
	f.StringSlice("pd-endpoint", nil, "tikv placement driver endpoints (default $PD_ENDPOINT or 127.0.0.1:2379)")
	f.String("otel-endpoint", "", "otlp grpc collector, empty disables trace export")
	f.String("nats-url", "", "nats server for cache invalidation, embedded://host:port to run one in process, empty keeps it local")
	f.String("admin-username", "admin", "admin basic auth user")
	f.String("admin-password-hash", "", "bcrypt hash of the admin password, empty disables admin login")
	f.Int("default-page-size", 20, "page size when a request sets no limit")
	f.Int("max-page-size", 200, "largest page a request may ask for")
	f.Duration("cache-ttl", 60*time.Second, "how long resolved collections are cached")
	f.Duration("max-clock-skew", 5*time.Minute, "accepted difference between a signed Date header and now")
	f.String("ca-cert", "", "Path to CA certificate file for client verification (enables mTLS)")
	f.String("server-cert", "", "Path to server certificate file")
	f.String("server-key", "", "Path to server private key file")
	f.String("log-level", "info", "debug, info, warn or error")
}

// Load merges flags, environment and config file into a Config.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCOPEDB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, err
	}
	// nested keys keep flat flag names
	for key, flag := range map[string]string{
		"admin.username":      "admin-username",
		"admin.password-hash": "admin-password-hash",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return Config{}, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.PDEndpoints) == 0 {
		if env := os.Getenv("PD_ENDPOINT"); env != "" {
			cfg.PDEndpoints = strings.Split(env, ",")
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.KV {
	case "pebble", "pebble-mem", "tikv":
	default:
		return fmt.Errorf("unknown kv engine %q", c.KV)
	}
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 1 <= default-page-size (%d) <= max-page-size (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	if (c.ServerCert == "") != (c.ServerKey == "") {
		return fmt.Errorf("server-cert and server-key must be set together")
	}
	if c.CACert != "" && c.ServerCert == "" {
		return fmt.Errorf("ca-cert requires server-cert and server-key")
	}
	for _, k := range c.APIKeys {
		if k.ID == "" || k.Hash == "" {
			return fmt.Errorf("api-keys entries need an id and a hash")
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// APIKeyHashes maps key ids to the bcrypt hash of their secret.
func (c Config) APIKeyHashes() map[string]string {
	out := make(map[string]string, len(c.APIKeys))
	for _, k := range c.APIKeys {
		out[k.ID] = k.Hash
	}
	return out
}

func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log-level: %w", err)
	}
	return l, nil
}
