package authz

import (
	"context"
	"fmt"
	"slices"
	"unicode"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
)

// Storage layout, next to the catalog's:
//
//	a 0xff <client id>   client authorization record
//	k 0xff <key id>      client id owning the api key

func recordKey(clientID string) []byte {
	return append([]byte("a\xff"), clientID...)
}

func recordsPrefix() []byte {
	return []byte("a\xff")
}

func keyIDKey(keyID string) []byte {
	return append([]byte("k\xff"), keyID...)
}

func validIdentifier(kind, s string) error {
	if s == "" {
		return errs.Validationf("%s must not be empty", kind)
	}
	if len(s) > 128 {
		return errs.Validationf("%s must be at most 128 bytes", kind)
	}
	for _, r := range s {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return errs.Validationf("%s contains invalid character %q", kind, r)
		}
	}
	return nil
}

func (e *Engine) validate(ctx context.Context, rec api.ClientAuthorization) error {
	if rec == nil {
		return errs.Validationf("client authorization must have a type")
	}
	grant := rec.Grant()
	if err := validIdentifier("client_id", grant.ClientID); err != nil {
		return err
	}
	for _, s := range grant.Scopes {
		if !s.Type.Valid() {
			return errs.Validationf("unknown scope type %q", s.Type)
		}
		if s.Collection == "" {
			return errs.Validationf("scope %s has no collection", s.Type)
		}
		if e.collections != nil {
			if err := e.collections.Exists(ctx, s.Collection); err != nil {
				return errs.Validationf("scope %s refers to collection %q: %s", s.Type, s.Collection, errs.Message(err))
			}
		}
	}

	switch rec := rec.(type) {
	case *api.ClientAuthorizationAPIKey:
		ids := rec.KeyIDs()
		if rec.KeyID == "" {
			return errs.Validationf("key_id must not be empty")
		}
		for i, id := range ids {
			if err := validIdentifier("key id", id); err != nil {
				return err
			}
			if slices.Contains(ids[:i], id) {
				return errs.Validationf("key id %q listed twice", id)
			}
		}
	case *api.ClientAuthorizationHTTPSignature:
		if _, _, err := ParsePublicKey(rec.PublicKey); err != nil {
			return errs.Validationf("public_key: %w", err)
		}
	}
	return nil
}

func keyIDs(rec api.ClientAuthorization) []string {
	if key, ok := rec.(*api.ClientAuthorizationAPIKey); ok {
		return key.KeyIDs()
	}
	return nil
}

func load(ctx context.Context, r kv.Read, clientID string) (api.ClientAuthorization, error) {
	raw, err := r.Get(ctx, recordKey(clientID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.NotFoundf("client authorization %q not found", clientID)
	}
	var env api.AuthorizationEnvelope
	if err := kv.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("client authorization %s: %w", clientID, err)
	}
	return env.ClientAuthorization, nil
}

// bindKeys claims every key id of rec for clientID inside w.
func bindKeys(ctx context.Context, w kv.Write, clientID string, rec api.ClientAuthorization) error {
	for _, id := range keyIDs(rec) {
		owner, err := w.Get(ctx, keyIDKey(id))
		if err != nil {
			return err
		}
		if owner != nil && string(owner) != clientID {
			return errs.Conflictf("key id %q is already bound to another client", id)
		}
		if err := w.Put(keyIDKey(id), []byte(clientID)); err != nil {
			return err
		}
	}
	return nil
}

func unbindKeys(w kv.Write, rec api.ClientAuthorization) error {
	for _, id := range keyIDs(rec) {
		if err := w.Del(keyIDKey(id)); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a new client authorization. Client ids and api key ids are
// unique across all records.
func (e *Engine) Create(ctx context.Context, rec api.ClientAuthorization) (api.ClientAuthorization, error) {
	ctx, span := tracer.Start(ctx, "authz.Create")
	defer span.End()

	if err := e.validate(ctx, rec); err != nil {
		return nil, err
	}
	clientID := rec.Grant().ClientID
	raw, err := kv.Marshal(api.AuthorizationEnvelope{ClientAuthorization: rec})
	if err != nil {
		return nil, err
	}

	err = kv.Retry(ctx, "authz.Create", func() error {
		w := e.kv.Write()
		defer w.Close()

		existing, err := w.Get(ctx, recordKey(clientID))
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.Conflictf("client authorization %q already exists", clientID)
		}
		if err := bindKeys(ctx, w, clientID, rec); err != nil {
			return err
		}
		if err := w.Put(recordKey(clientID), raw); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	log.Info("client authorization created", "client", clientID, "type", rec.Type(), "scopes", len(rec.Grant().Scopes))
	return rec, nil
}

func (e *Engine) Get(ctx context.Context, clientID string) (api.ClientAuthorization, error) {
	r := e.kv.Read()
	defer r.Close()
	return load(ctx, r, clientID)
}

// GetAPIKey returns NotFound if the client exists with another type.
func (e *Engine) GetAPIKey(ctx context.Context, clientID string) (*api.ClientAuthorizationAPIKey, error) {
	rec, err := e.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	key, ok := rec.(*api.ClientAuthorizationAPIKey)
	if !ok {
		return nil, errs.NotFoundf("client authorization %q is not of type %s", clientID, api.AuthorizationAPIKey)
	}
	return key, nil
}

// GetHTTPSignature returns NotFound if the client exists with another type.
func (e *Engine) GetHTTPSignature(ctx context.Context, clientID string) (*api.ClientAuthorizationHTTPSignature, error) {
	rec, err := e.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	sig, ok := rec.(*api.ClientAuthorizationHTTPSignature)
	if !ok {
		return nil, errs.NotFoundf("client authorization %q is not of type %s", clientID, api.AuthorizationHTTPSignature)
	}
	return sig, nil
}

// List returns every record ordered by client id.
func (e *Engine) List(ctx context.Context) ([]api.ClientAuthorization, error) {
	r := e.kv.Read()
	defer r.Close()

	prefix := recordsPrefix()
	out := []api.ClientAuthorization{}
	for item, err := range r.Iter(ctx, prefix, kv.PrefixEnd(prefix)) {
		if err != nil {
			return nil, err
		}
		var env api.AuthorizationEnvelope
		if err := kv.Unmarshal(item.V, &env); err != nil {
			return nil, fmt.Errorf("client authorization %s: %w", item.K[len(prefix):], err)
		}
		out = append(out, env.ClientAuthorization)
	}
	return out, nil
}

// Update replaces the whole record. The record may change its type.
func (e *Engine) Update(ctx context.Context, clientID string, rec api.ClientAuthorization) (api.ClientAuthorization, error) {
	ctx, span := tracer.Start(ctx, "authz.Update")
	defer span.End()

	if rec != nil && rec.Grant().ClientID != clientID {
		return nil, errs.Validationf("client_id %q does not match %q", rec.Grant().ClientID, clientID)
	}
	if err := e.validate(ctx, rec); err != nil {
		return nil, err
	}
	raw, err := kv.Marshal(api.AuthorizationEnvelope{ClientAuthorization: rec})
	if err != nil {
		return nil, err
	}

	err = kv.Retry(ctx, "authz.Update", func() error {
		w := e.kv.Write()
		defer w.Close()

		old, err := load(ctx, w, clientID)
		if err != nil {
			return err
		}
		if err := unbindKeys(w, old); err != nil {
			return err
		}
		if err := bindKeys(ctx, w, clientID, rec); err != nil {
			return err
		}
		if err := w.Put(recordKey(clientID), raw); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	log.Info("client authorization updated", "client", clientID, "type", rec.Type(), "scopes", len(rec.Grant().Scopes))
	return rec, nil
}

func (e *Engine) Delete(ctx context.Context, clientID string) error {
	ctx, span := tracer.Start(ctx, "authz.Delete")
	defer span.End()

	err := kv.Retry(ctx, "authz.Delete", func() error {
		w := e.kv.Write()
		defer w.Close()

		old, err := load(ctx, w, clientID)
		if err != nil {
			return err
		}
		if err := unbindKeys(w, old); err != nil {
			return err
		}
		if err := w.Del(recordKey(clientID)); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return err
	}

	log.Info("client authorization deleted", "client", clientID)
	return nil
}
