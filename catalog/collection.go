package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/predicate"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Collection is a registered collection together with the schema compiled
// from its field hints.
type Collection struct {
	api.Collection
	schema *jsonschema.Schema
}

var systemCollections = map[string]*Collection{
	SystemAuthorizations: {Collection: api.Collection{Name: SystemAuthorizations, IDKey: "client_id"}},
}

func IsSystem(name string) bool {
	_, ok := systemCollections[name]
	return ok
}

// Validate checks doc against the field hints and the identity key.
func (c *Collection) Validate(doc api.Document) error {
	if _, err := c.ID(doc); err != nil {
		return err
	}
	if c.schema == nil {
		return nil
	}
	if err := c.schema.Validate(map[string]any(doc)); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return errs.Validationf("document does not match collection %s: %s", c.Name, describe(verr))
		}
		return errs.Validationf("document does not match collection %s: %w", c.Name, err)
	}
	return nil
}

func describe(verr *jsonschema.ValidationError) string {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	loc := verr.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + verr.Message
}

// ID returns the identity value of doc, which must be a scalar.
func (c *Collection) ID(doc api.Document) (any, error) {
	id, ok := predicate.Lookup(doc, c.IDKey)
	if !ok {
		return nil, errs.Validationf("document is missing its id field %q", c.IDKey)
	}
	if !predicate.IsScalar(id) {
		return nil, errs.Validationf("id field %q must be a string, number or boolean", c.IDKey)
	}
	return id, nil
}

func validName(kind, name string) error {
	if len(name) < 1 {
		return errs.Validationf("%s must not be empty", kind)
	}
	if len(name) > 64 {
		return errs.Validationf("%s must be less than 64 bytes", kind)
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '-' || char == '_') {
			return errs.Validationf("%s has invalid character: %c", kind, char)
		}
	}
	return nil
}

// validPath accepts dotted paths without empty segments.
func validPath(path string) bool {
	if path == "" {
		return false
	}
	return !slices.Contains(strings.Split(path, "."), "")
}

func validateCollection(col api.Collection) error {
	if err := validName("collection name", col.Name); err != nil {
		return err
	}
	if IsSystem(col.Name) {
		return errs.Validationf("collection name %q is reserved", col.Name)
	}
	if !validPath(col.IDKey) {
		return errs.Validationf("id_key must be a non-empty field path")
	}
	seen := make(map[string]bool, len(col.Fields))
	for _, f := range col.Fields {
		if !validPath(f.Name) {
			return errs.Validationf("field name %q is not a valid path", f.Name)
		}
		if seen[f.Name] {
			return errs.Validationf("field %q declared twice", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case "", api.FieldString, api.FieldNumber, api.FieldBoolean, api.FieldObject, api.FieldArray:
		default:
			return errs.Validationf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

func compileSchema(col api.Collection) (*jsonschema.Schema, error) {
	root := map[string]any{"type": "object"}
	if !strings.Contains(col.IDKey, ".") {
		root["required"] = []string{col.IDKey}
	}
	for _, f := range col.Fields {
		if f.Type == "" {
			continue
		}
		setProperty(root, strings.Split(f.Name, "."), string(f.Type))
	}

	raw, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}

	url := "collection-" + col.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, errs.Validationf("field hints do not form a valid schema: %w", err)
	}
	return schema, nil
}

func setProperty(schema map[string]any, path []string, typ string) {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		props = make(map[string]any)
		schema["properties"] = props
	}
	child, _ := props[path[0]].(map[string]any)
	if child == nil {
		child = make(map[string]any)
		props[path[0]] = child
	}
	if len(path) == 1 {
		child["type"] = typ
		return
	}
	child["type"] = "object"
	setProperty(child, path[1:], typ)
}

func newCollection(col api.Collection) (*Collection, error) {
	schema, err := compileSchema(col)
	if err != nil {
		return nil, err
	}
	return &Collection{Collection: col, schema: schema}, nil
}

// Create registers a new collection. The name is its primary key.
func (c *Catalog) Create(ctx context.Context, col api.Collection) (api.Collection, error) {
	ctx, span := tracer.Start(ctx, "catalog.Create")
	defer span.End()

	if err := validateCollection(col); err != nil {
		return api.Collection{}, err
	}
	if _, err := newCollection(col); err != nil {
		return api.Collection{}, err
	}

	raw, err := kv.Marshal(col)
	if err != nil {
		return api.Collection{}, err
	}

	err = kv.Retry(ctx, "catalog.Create", func() error {
		w := c.kv.Write()
		defer w.Close()

		existing, err := w.Get(ctx, CollectionKey(col.Name))
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.Conflictf("collection %q already exists", col.Name)
		}
		if err := w.Put(CollectionKey(col.Name), raw); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return api.Collection{}, err
	}

	c.invalidate(col.Name)
	log.Info("collection created", "collection", col.Name, "id_key", col.IDKey)
	return col, nil
}

// Resolve returns the named collection or a NotFound error.
func (c *Catalog) Resolve(ctx context.Context, name string) (*Collection, error) {
	if sys, ok := systemCollections[name]; ok {
		return sys, nil
	}
	if col, ok := c.cache.Get(name); ok {
		return col, nil
	}

	r := c.kv.Read()
	defer r.Close()

	col, err := loadCollection(ctx, r, name)
	if err != nil {
		return nil, err
	}
	c.cache.Set(name, col)
	return col, nil
}

// Exists returns nil when the collection is registered.
func (c *Catalog) Exists(ctx context.Context, name string) error {
	_, err := c.Resolve(ctx, name)
	return err
}

func loadCollection(ctx context.Context, r kv.Read, name string) (*Collection, error) {
	raw, err := r.Get(ctx, CollectionKey(name))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.NotFoundf("collection %q not found", name)
	}
	var col api.Collection
	if err := kv.Unmarshal(raw, &col); err != nil {
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	return newCollection(col)
}

// List returns every user collection ordered by name.
func (c *Catalog) List(ctx context.Context) ([]api.Collection, error) {
	r := c.kv.Read()
	defer r.Close()

	prefix := collectionsPrefix()
	out := []api.Collection{}
	for item, err := range r.Iter(ctx, prefix, kv.PrefixEnd(prefix)) {
		if err != nil {
			return nil, err
		}
		var col api.Collection
		if err := kv.Unmarshal(item.V, &col); err != nil {
			return nil, fmt.Errorf("collection %s: %w", item.K[len(prefix):], err)
		}
		out = append(out, col)
	}
	return out, nil
}

// Delete removes the collection with its indexes, index entries and documents.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "catalog.Delete")
	defer span.End()

	if IsSystem(name) {
		return errs.Validationf("collection %q is reserved", name)
	}

	err := kv.Retry(ctx, "catalog.Delete", func() error {
		w, err := Lock(ctx, c.kv, name)
		if err != nil {
			return err
		}
		defer w.Close()

		existing, err := w.Get(ctx, CollectionKey(name))
		if err != nil {
			return err
		}
		if existing == nil {
			return errs.NotFoundf("collection %q not found", name)
		}
		if err := w.Del(CollectionKey(name)); err != nil {
			return err
		}
		for _, prefix := range [][]byte{IndexesPrefix(name), entriesCollectionPrefix(name), DocumentsPrefix(name)} {
			if err := deletePrefix(ctx, w, prefix); err != nil {
				return err
			}
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return err
	}

	c.invalidate(name)
	log.Info("collection deleted", "collection", name)
	return nil
}
