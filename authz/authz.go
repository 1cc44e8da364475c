// Package authz decides whether a request may run.
//
// Authentication maps a credential to an Identity. Authorization then checks
// that identity's scopes against the requested collection and operation.
// Records and scopes are read from storage on every request so a revoked
// grant stops working immediately.
package authz

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/lmittmann/tint"
	"github.com/maypok86/otter"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

var tracer = otel.Tracer("github.com/aep/scopedb/authz")

// DecisionsTotal counts decisions by outcome. The server registers it.
var DecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by outcome",
	},
	[]string{"outcome"},
)

const DefaultMaxClockSkew = 5 * time.Minute

type Config struct {
	// AdminUsername and AdminPasswordHash (bcrypt) enable the admin
	// identity. Without a hash nobody can authenticate as admin.
	AdminUsername     string
	AdminPasswordHash string

	// APIKeys maps a key id to the bcrypt hash of its secret.
	APIKeys map[string]string

	MaxClockSkew time.Duration
}

// CollectionResolver reports whether a collection exists.
type CollectionResolver interface {
	Exists(ctx context.Context, name string) error
}

type Engine struct {
	kv          kv.KV
	collections CollectionResolver
	cfg         Config
	maxSkew     time.Duration
	now         func() time.Time

	// bcrypt is slow on purpose; remember secrets that already matched
	// their current hash.
	verified otter.Cache[string, struct{}]
}

func New(k kv.KV, collections CollectionResolver, cfg Config) (*Engine, error) {
	verified, err := otter.MustBuilder[string, struct{}](10000).
		WithTTL(5 * time.Minute).
		Build()
	if err != nil {
		return nil, fmt.Errorf("authz cache: %w", err)
	}

	skew := cfg.MaxClockSkew
	if skew <= 0 {
		skew = DefaultMaxClockSkew
	}
	return &Engine{
		kv:          k,
		collections: collections,
		cfg:         cfg,
		maxSkew:     skew,
		now:         time.Now,
		verified:    verified,
	}, nil
}

func (e *Engine) Close() {
	e.verified.Close()
}

// Identity is an authenticated caller.
type Identity struct {
	ClientID string
	Admin    bool
	Method   string
	Scopes   []api.ClientScope
}

// Authenticate verifies cred and loads the caller's current grants.
func (e *Engine) Authenticate(ctx context.Context, cred Credential) (Identity, error) {
	ctx, span := tracer.Start(ctx, "authz.Authenticate")
	defer span.End()

	switch c := cred.(type) {
	case Admin:
		return e.authenticateAdmin(c)
	case APIKey:
		return e.authenticateAPIKey(ctx, c)
	case Signature:
		return e.authenticateSignature(ctx, c)
	case nil:
		return Identity{}, errs.Unauthenticatedf("no credentials presented")
	}
	return Identity{}, errs.Unauthenticatedf("unsupported credential %T", cred)
}

func (e *Engine) authenticateAdmin(c Admin) (Identity, error) {
	if e.cfg.AdminPasswordHash == "" {
		return Identity{}, errs.Unauthenticatedf("admin login is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(c.Username), []byte(e.cfg.AdminUsername)) != 1 {
		return Identity{}, errs.Unauthenticatedf("invalid admin credentials")
	}
	if !e.checkSecret("admin", c.Password, e.cfg.AdminPasswordHash) {
		return Identity{}, errs.Unauthenticatedf("invalid admin credentials")
	}
	return Identity{ClientID: c.Username, Admin: true, Method: "admin"}, nil
}

func (e *Engine) authenticateAPIKey(ctx context.Context, c APIKey) (Identity, error) {
	if c.Secret == "" {
		return Identity{}, errs.Unauthenticatedf("api key %q presented without a secret", c.KeyID)
	}
	hash, ok := e.cfg.APIKeys[c.KeyID]
	if !ok {
		return Identity{}, errs.Unauthenticatedf("unknown api key %q", c.KeyID)
	}

	r := e.kv.Read()
	defer r.Close()

	clientID, err := r.Get(ctx, keyIDKey(c.KeyID))
	if err != nil {
		return Identity{}, err
	}
	if clientID == nil {
		return Identity{}, errs.Unauthenticatedf("api key %q is not bound to a client", c.KeyID)
	}
	rec, err := load(ctx, r, string(clientID))
	if err != nil {
		return Identity{}, unauthenticated(err)
	}
	key, ok := rec.(*api.ClientAuthorizationAPIKey)
	if !ok {
		return Identity{}, errs.Unauthenticatedf("client %q does not use api keys", clientID)
	}

	if !e.checkSecret(c.KeyID, c.Secret, hash) {
		return Identity{}, errs.Unauthenticatedf("invalid secret for api key %q", c.KeyID)
	}
	return Identity{ClientID: key.ClientID, Method: string(api.AuthorizationAPIKey), Scopes: key.Scopes}, nil
}

func (e *Engine) authenticateSignature(ctx context.Context, c Signature) (Identity, error) {
	r := e.kv.Read()
	defer r.Close()

	rec, err := load(ctx, r, c.ClientID)
	if err != nil {
		return Identity{}, unauthenticated(err)
	}
	sig, ok := rec.(*api.ClientAuthorizationHTTPSignature)
	if !ok {
		return Identity{}, errs.Unauthenticatedf("client %q does not use http signatures", c.ClientID)
	}
	pub, algo, err := ParsePublicKey(sig.PublicKey)
	if err != nil {
		return Identity{}, fmt.Errorf("client %s has an unusable public key: %w", c.ClientID, err)
	}
	if err := c.verifier.Verify(pub, algo); err != nil {
		return Identity{}, errs.Unauthenticatedf("signature verification failed for client %q", c.ClientID)
	}
	return Identity{ClientID: sig.ClientID, Method: string(api.AuthorizationHTTPSignature), Scopes: sig.Scopes}, nil
}

func (e *Engine) checkSecret(id, secret, hash string) bool {
	sum := sha256.Sum256([]byte(id + "\x00" + secret + "\x00" + hash))
	memo := hex.EncodeToString(sum[:])
	if _, ok := e.verified.Get(memo); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return false
	}
	e.verified.Set(memo, struct{}{})
	return true
}

func unauthenticated(err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.Unauthenticatedf("%s", errs.Message(err))
	}
	return err
}

// Request names what the caller wants to do. A request with Admin set may
// only run for the admin identity.
type Request struct {
	Collection string
	Operation  api.Operation
	Admin      bool
}

func (r Request) String() string {
	if r.Admin {
		return "admin"
	}
	return string(r.Operation) + " " + r.Collection
}

type Outcome int

const (
	Authorized Outcome = iota
	Unauthenticated
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

type Decision struct {
	Outcome  Outcome
	Identity Identity
	Err      error
}

// Authorize checks id against req. Admin may do everything.
func Authorize(id Identity, req Request) Decision {
	if id.Admin {
		return Decision{Outcome: Authorized, Identity: id}
	}
	if req.Admin {
		return Decision{Outcome: Forbidden, Identity: id,
			Err: errs.Forbiddenf("client %q may not perform administrative operations", id.ClientID)}
	}
	for _, s := range id.Scopes {
		if s.Collection == req.Collection && s.Type.Permits(req.Operation) {
			return Decision{Outcome: Authorized, Identity: id}
		}
	}
	return Decision{Outcome: Forbidden, Identity: id,
		Err: errs.Forbiddenf("client %q has no %s scope on collection %q", id.ClientID, req.Operation, req.Collection)}
}

// Decide runs authentication and then authorization. Errors from storage
// are reported as Err with the Unauthenticated outcome.
func (e *Engine) Decide(ctx context.Context, cred Credential, req Request) Decision {
	id, err := e.Authenticate(ctx, cred)
	var d Decision
	if err != nil {
		d = Decision{Outcome: Unauthenticated, Err: err}
	} else {
		d = Authorize(id, req)
	}

	record(req, d)
	return d
}

// DecideHTTP extracts the credential presented by r and decides req.
func (e *Engine) DecideHTTP(r *http.Request, body []byte, req Request) Decision {
	cred, err := e.Credential(r, body)
	if err != nil {
		d := Decision{Outcome: Unauthenticated, Err: err}
		record(req, d)
		return d
	}
	return e.Decide(r.Context(), cred, req)
}

func record(req Request, d Decision) {
	DecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()
	if d.Outcome != Authorized {
		log.Info("request denied", "request", req.String(), "client", d.Identity.ClientID,
			"outcome", d.Outcome.String(), "reason", errs.Message(d.Err))
	}
}
