// Package engine stores documents and keeps their index entries in step.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/page"
	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

var tracer = otel.Tracer("github.com/aep/scopedb/engine")

type Engine struct {
	kv      kv.KV
	catalog *catalog.Catalog
	pages   page.Options
}

func New(k kv.KV, cat *catalog.Catalog, pages page.Options) *Engine {
	return &Engine{kv: k, catalog: cat, pages: pages}
}

// normalize gives doc the shape it has after a round trip through storage,
// so numbers are json.Number no matter who built the map.
func normalize(doc api.Document) (api.Document, error) {
	if doc == nil {
		return nil, errs.Validationf("document must be a JSON object")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Validationf("document is not valid JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out api.Document
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) collection(ctx context.Context, name string) (*catalog.Collection, error) {
	if catalog.IsSystem(name) {
		return nil, errs.Validationf("collection %q is reserved", name)
	}
	return e.catalog.Resolve(ctx, name)
}

func documentKey(col *catalog.Collection, id any) ([]byte, error) {
	key, ok := catalog.DocumentKey(col.Name, id)
	if !ok {
		return nil, errs.Validationf("id must be a string, number or boolean")
	}
	return key, nil
}

func prepare(col *catalog.Collection, doc api.Document) (api.Document, []byte, error) {
	doc, err := normalize(doc)
	if err != nil {
		return nil, nil, err
	}
	if err := col.Validate(doc); err != nil {
		return nil, nil, err
	}
	id, err := col.ID(doc)
	if err != nil {
		return nil, nil, err
	}
	key, err := documentKey(col, id)
	if err != nil {
		return nil, nil, err
	}
	return doc, key, nil
}

// indexes reads the index definitions in the same transaction as the write.
// The write holds the collection lock, so the set cannot change before it
// commits.
func indexes(ctx context.Context, w kv.Write, collection string) ([]api.Index, error) {
	raw, err := w.Get(ctx, catalog.CollectionKey(collection))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errs.NotFoundf("collection %q not found", collection)
	}
	return catalog.ListIndexes(ctx, w, collection)
}

func putEntries(w kv.Write, idxs []api.Index, doc api.Document, docKey []byte) error {
	for _, idx := range idxs {
		entry, ok := catalog.EntryKey(idx, doc, docKey)
		if !ok {
			continue
		}
		if err := w.Put(entry, docKey); err != nil {
			return err
		}
	}
	return nil
}

func delEntries(w kv.Write, idxs []api.Index, doc api.Document, docKey []byte) error {
	for _, idx := range idxs {
		entry, ok := catalog.EntryKey(idx, doc, docKey)
		if !ok {
			continue
		}
		if err := w.Del(entry); err != nil {
			return err
		}
	}
	return nil
}

func loadDocument(ctx context.Context, r kv.Read, key []byte) (api.Document, error) {
	raw, err := r.Get(ctx, key)
	if err != nil || raw == nil {
		return nil, err
	}
	var doc api.Document
	if err := kv.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("document %q: %w", key, err)
	}
	return doc, nil
}

// Create stores a new document. Its id must not exist yet.
func (e *Engine) Create(ctx context.Context, collection string, doc api.Document) (api.Document, error) {
	ctx, span := tracer.Start(ctx, "engine.Create", trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	col, err := e.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	doc, key, err := prepare(col, doc)
	if err != nil {
		return nil, err
	}
	raw, err := kv.Marshal(doc)
	if err != nil {
		return nil, err
	}

	err = kv.Retry(ctx, "engine.Create", func() error {
		w, err := catalog.Lock(ctx, e.kv, collection)
		if err != nil {
			return err
		}
		defer w.Close()

		idxs, err := indexes(ctx, w, collection)
		if err != nil {
			return err
		}
		existing, err := w.Get(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			id, _ := col.ID(doc)
			return errs.Conflictf("document %v already exists in %q", id, collection)
		}
		if err := w.Put(key, raw); err != nil {
			return err
		}
		if err := putEntries(w, idxs, doc, key); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *Engine) Get(ctx context.Context, collection, id string) (api.Document, error) {
	ctx, span := tracer.Start(ctx, "engine.Get", trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	col, err := e.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	key, err := documentKey(col, id)
	if err != nil {
		return nil, err
	}

	r := e.kv.Read()
	defer r.Close()

	doc, err := loadDocument(ctx, r, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.NotFoundf("document %q not found in %q", id, collection)
	}
	return doc, nil
}

// Update replaces the document stored under id. The new document must carry
// the same id.
func (e *Engine) Update(ctx context.Context, collection, id string, doc api.Document) (api.Document, error) {
	ctx, span := tracer.Start(ctx, "engine.Update", trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	col, err := e.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	doc, key, err := prepare(col, doc)
	if err != nil {
		return nil, err
	}
	pathKey, err := documentKey(col, id)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(key, pathKey) {
		return nil, errs.Validationf("document %s does not match %q", col.IDKey, id)
	}
	raw, err := kv.Marshal(doc)
	if err != nil {
		return nil, err
	}

	err = kv.Retry(ctx, "engine.Update", func() error {
		w, err := catalog.Lock(ctx, e.kv, collection)
		if err != nil {
			return err
		}
		defer w.Close()

		idxs, err := indexes(ctx, w, collection)
		if err != nil {
			return err
		}
		old, err := loadDocument(ctx, w, key)
		if err != nil {
			return err
		}
		if old == nil {
			return errs.NotFoundf("document %q not found in %q", id, collection)
		}
		if err := delEntries(w, idxs, old, key); err != nil {
			return err
		}
		if err := w.Put(key, raw); err != nil {
			return err
		}
		if err := putEntries(w, idxs, doc, key); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *Engine) Delete(ctx context.Context, collection, id string) error {
	ctx, span := tracer.Start(ctx, "engine.Delete", trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	col, err := e.collection(ctx, collection)
	if err != nil {
		return err
	}
	key, err := documentKey(col, id)
	if err != nil {
		return err
	}

	return kv.Retry(ctx, "engine.Delete", func() error {
		w, err := catalog.Lock(ctx, e.kv, collection)
		if err != nil {
			return err
		}
		defer w.Close()

		idxs, err := indexes(ctx, w, collection)
		if err != nil {
			return err
		}
		old, err := loadDocument(ctx, w, key)
		if err != nil {
			return err
		}
		if old == nil {
			return errs.NotFoundf("document %q not found in %q", id, collection)
		}
		if err := delEntries(w, idxs, old, key); err != nil {
			return err
		}
		if err := w.Del(key); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
}
