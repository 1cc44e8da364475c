package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/sdk"
	"sigs.k8s.io/yaml"
)

type Kind string

const (
	KindCollection    Kind = "collection"
	KindIndex         Kind = "index"
	KindAuthorization Kind = "authorization"
	KindDocument      Kind = "document"
)

// Manifest is one YAML document of an apply file. Body holds the rest of
// the document as JSON.
type Manifest struct {
	Kind Kind
	Body json.RawMessage
}

type indexManifest struct {
	Collection  string   `json:"collection"`
	Name        string   `json:"name"`
	OrderingKey string   `json:"ordering_key,omitempty"`
	Conditions  []string `json:"conditions"`
}

type documentManifest struct {
	Collection string       `json:"collection"`
	ID         string       `json:"id,omitempty"`
	Data       api.Document `json:"data"`
}

func readFile(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

func parseFile(file string) ([]Manifest, error) {
	data, err := readFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return parseManifests(data)
}

func parseManifests(data []byte) ([]Manifest, error) {
	var out []Manifest
	for i, doc := range strings.Split(string(data), "---\n") {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		js, err := yaml.YAMLToJSON([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		var fields map[string]json.RawMessage
		if err := decode(js, &fields); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		var kind Kind
		if err := json.Unmarshal(fields["kind"], &kind); err != nil {
			return nil, fmt.Errorf("document %d: missing kind", i)
		}
		switch kind {
		case KindCollection, KindIndex, KindAuthorization, KindDocument:
		default:
			return nil, fmt.Errorf("document %d: unknown kind %q", i, kind)
		}
		delete(fields, "kind")

		body, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, Manifest{Kind: kind, Body: body})
	}
	return out, nil
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// apply creates the object, or updates it where the api allows updates.
// It returns a kubectl style status line.
func apply(ctx context.Context, c *sdk.Client, m Manifest) (string, error) {
	switch m.Kind {
	case KindCollection:
		var col api.Collection
		if err := decode(m.Body, &col); err != nil {
			return "", err
		}
		_, err := c.CreateCollection(ctx, col)
		if sdk.IsConflict(err) {
			return "collection/" + col.Name + " unchanged", nil
		}
		if err != nil {
			return "", err
		}
		return "collection/" + col.Name + " created", nil

	case KindIndex:
		var idx indexManifest
		if err := decode(m.Body, &idx); err != nil {
			return "", err
		}
		// indexes are identified by uid, so the name is what makes apply repeatable
		existing, err := c.ListIndexes(ctx, idx.Collection)
		if err != nil {
			return "", err
		}
		for _, e := range existing {
			if e.Name == idx.Name {
				return "index/" + idx.Name + " unchanged", nil
			}
		}
		out, err := c.CreateIndex(ctx, api.Index{
			Collection:  api.Collection{Name: idx.Collection},
			Name:        idx.Name,
			OrderingKey: idx.OrderingKey,
			Conditions:  idx.Conditions,
		})
		if err != nil {
			return "", err
		}
		return "index/" + out.Name + " created (" + out.UID + ")", nil

	case KindAuthorization:
		var env api.AuthorizationEnvelope
		if err := json.Unmarshal(m.Body, &env); err != nil {
			return "", err
		}
		id := env.Grant().ClientID
		_, err := c.CreateClientAuthorization(ctx, env.ClientAuthorization)
		if sdk.IsConflict(err) {
			if _, err := c.UpdateClientAuthorization(ctx, id, env.ClientAuthorization); err != nil {
				return "", err
			}
			return "authorization/" + id + " configured", nil
		}
		if err != nil {
			return "", err
		}
		return "authorization/" + id + " created", nil

	case KindDocument:
		var doc documentManifest
		if err := decode(m.Body, &doc); err != nil {
			return "", err
		}
		_, err := c.CreateDocument(ctx, doc.Collection, doc.Data)
		if sdk.IsConflict(err) {
			id := doc.ID
			if id == "" {
				id, err = documentID(ctx, c, doc)
				if err != nil {
					return "", err
				}
			}
			if _, err := c.UpdateDocument(ctx, doc.Collection, id, doc.Data); err != nil {
				return "", err
			}
			return doc.Collection + "/" + id + " configured", nil
		}
		if err != nil {
			return "", err
		}
		if id, err := documentID(ctx, c, doc); err == nil {
			return doc.Collection + "/" + id + " created", nil
		}
		return "document created in " + doc.Collection, nil
	}
	return "", fmt.Errorf("unknown kind %q", m.Kind)
}

// documentID needs the collection's id_key, which only admins can read.
func documentID(ctx context.Context, c *sdk.Client, doc documentManifest) (string, error) {
	if doc.ID != "" {
		return doc.ID, nil
	}
	col, err := c.GetCollection(ctx, doc.Collection)
	if err != nil {
		return "", fmt.Errorf("cannot find the id of a %s document, set id in the manifest: %w", doc.Collection, err)
	}
	v, ok := doc.Data[col.IDKey]
	if !ok {
		return "", fmt.Errorf("%s document has no %s", doc.Collection, col.IDKey)
	}
	return fmt.Sprint(v), nil
}
