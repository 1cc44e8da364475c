package catalog

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/predicate"
	"github.com/rs/xid"
)

func validateIndex(idx api.Index) error {
	if idx.Name == "" {
		return errs.Validationf("index name must not be empty")
	}
	if idx.Collection.Name == "" {
		return errs.Validationf("index collection must not be empty")
	}
	if len(idx.Conditions) == 0 {
		return errs.Validationf("index %s: conditions must not be empty", idx.Name)
	}
	for i, cond := range idx.Conditions {
		if !validPath(cond) {
			return errs.Validationf("index %s: condition %q is not a valid field path", idx.Name, cond)
		}
		if slices.Contains(idx.Conditions[:i], cond) {
			return errs.Validationf("index %s: condition %q listed twice", idx.Name, cond)
		}
	}
	if idx.OrderingKey != "" && !validPath(idx.OrderingKey) {
		return errs.Validationf("index %s: ordering key %q is not a valid field path", idx.Name, idx.OrderingKey)
	}
	return nil
}

// CreateIndex registers idx under a fresh uid and writes entries for the
// documents already stored. Any uid sent by the caller is ignored.
func (c *Catalog) CreateIndex(ctx context.Context, idx api.Index) (api.Index, error) {
	ctx, span := tracer.Start(ctx, "catalog.CreateIndex")
	defer span.End()

	if err := validateIndex(idx); err != nil {
		return api.Index{}, err
	}
	if IsSystem(idx.Collection.Name) {
		return api.Index{}, errs.Validationf("collection %q cannot be indexed", idx.Collection.Name)
	}

	idx.UID = xid.New().String()

	err := kv.Retry(ctx, "catalog.CreateIndex", func() error {
		w, err := Lock(ctx, c.kv, idx.Collection.Name)
		if err != nil {
			return err
		}
		defer w.Close()

		rawCol, err := w.Get(ctx, CollectionKey(idx.Collection.Name))
		if err != nil {
			return err
		}
		if rawCol == nil {
			return errs.NotFoundf("collection %q not found", idx.Collection.Name)
		}
		if err := kv.Unmarshal(rawCol, &idx.Collection); err != nil {
			return err
		}
		if err := w.Put(CollectionKey(idx.Collection.Name), rawCol); err != nil {
			return err
		}

		raw, err := kv.Marshal(idx)
		if err != nil {
			return err
		}
		if err := w.Put(IndexKey(idx.Collection.Name, idx.UID), raw); err != nil {
			return err
		}
		if err := backfill(ctx, w, idx); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return api.Index{}, err
	}

	log.Info("index created", "collection", idx.Collection.Name, "index", idx.Name, "uid", idx.UID)
	return idx, nil
}

func backfill(ctx context.Context, w kv.Write, idx api.Index) error {
	prefix := DocumentsPrefix(idx.Collection.Name)

	var entries []kv.KeyAndValue
	for item, err := range w.Iter(ctx, prefix, kv.PrefixEnd(prefix)) {
		if err != nil {
			return err
		}
		var doc api.Document
		if err := kv.Unmarshal(item.V, &doc); err != nil {
			return fmt.Errorf("document %q: %w", item.K, err)
		}
		if k, ok := EntryKey(idx, doc, item.K); ok {
			entries = append(entries, kv.KeyAndValue{K: k, V: item.K})
		}
	}
	for _, e := range entries {
		if err := w.Put(e.K, e.V); err != nil {
			return err
		}
	}
	return nil
}

// EntryKey is the key of the index entry for the document stored under
// docKey. Documents that lack a condition field, or hold a non scalar there,
// have no entry: no equality on that field can match them. A missing
// ordering value sorts first.
func EntryKey(idx api.Index, doc api.Document, docKey []byte) ([]byte, bool) {
	k := EntriesPrefix(idx.Collection.Name, idx.UID)
	for _, cond := range idx.Conditions {
		v, ok := predicate.Lookup(doc, cond)
		if !ok {
			return nil, false
		}
		seg, ok := predicate.EncodeKey(v)
		if !ok {
			return nil, false
		}
		k = append(k, seg...)
	}
	if idx.OrderingKey != "" {
		seg := predicate.EncodeMissing()
		if v, ok := predicate.Lookup(doc, idx.OrderingKey); ok {
			if s, ok := predicate.EncodeKey(v); ok {
				seg = s
			}
		}
		k = append(k, seg...)
	}
	return append(k, bytes.TrimPrefix(docKey, DocumentsPrefix(idx.Collection.Name))...), true
}

// ScanPrefix is the key prefix holding the entries of idx whose condition
// values equal eq.
func ScanPrefix(idx api.Index, eq map[string]any) ([]byte, error) {
	k := EntriesPrefix(idx.Collection.Name, idx.UID)
	for _, cond := range idx.Conditions {
		v, ok := eq[cond]
		if !ok {
			return nil, fmt.Errorf("index %s does not serve field %q", idx.UID, cond)
		}
		seg, ok := predicate.EncodeKey(v)
		if !ok {
			return nil, errs.Validationf("value for %q is not comparable", cond)
		}
		k = append(k, seg...)
	}
	return k, nil
}

// ListIndexes reads the index definitions of collection from r, in
// creation order.
func ListIndexes(ctx context.Context, r kv.Read, collection string) ([]api.Index, error) {
	prefix := IndexesPrefix(collection)
	out := []api.Index{}
	for item, err := range r.Iter(ctx, prefix, kv.PrefixEnd(prefix)) {
		if err != nil {
			return nil, err
		}
		var idx api.Index
		if err := kv.Unmarshal(item.V, &idx); err != nil {
			return nil, fmt.Errorf("index %q: %w", item.K, err)
		}
		out = append(out, idx)
	}
	return out, nil
}

func (c *Catalog) Indexes(ctx context.Context, collection string) ([]api.Index, error) {
	r := c.kv.Read()
	defer r.Close()

	if raw, err := r.Get(ctx, CollectionKey(collection)); err != nil {
		return nil, err
	} else if raw == nil {
		return nil, errs.NotFoundf("collection %q not found", collection)
	}
	return ListIndexes(ctx, r, collection)
}

func (c *Catalog) GetIndex(ctx context.Context, collection, uid string) (api.Index, error) {
	r := c.kv.Read()
	defer r.Close()

	raw, err := r.Get(ctx, IndexKey(collection, uid))
	if err != nil {
		return api.Index{}, err
	}
	if raw == nil {
		return api.Index{}, errs.NotFoundf("index %q not found on %q", uid, collection)
	}
	var idx api.Index
	if err := kv.Unmarshal(raw, &idx); err != nil {
		return api.Index{}, err
	}
	return idx, nil
}

// DeleteIndex drops the definition and its entries.
func (c *Catalog) DeleteIndex(ctx context.Context, collection, uid string) error {
	ctx, span := tracer.Start(ctx, "catalog.DeleteIndex")
	defer span.End()

	err := kv.Retry(ctx, "catalog.DeleteIndex", func() error {
		w, err := Lock(ctx, c.kv, collection)
		if err != nil {
			return err
		}
		defer w.Close()

		rawCol, err := w.Get(ctx, CollectionKey(collection))
		if err != nil {
			return err
		}
		if rawCol == nil {
			return errs.NotFoundf("collection %q not found", collection)
		}
		if err := w.Put(CollectionKey(collection), rawCol); err != nil {
			return err
		}

		raw, err := w.Get(ctx, IndexKey(collection, uid))
		if err != nil {
			return err
		}
		if raw == nil {
			return errs.NotFoundf("index %q not found on %q", uid, collection)
		}
		if err := w.Del(IndexKey(collection, uid)); err != nil {
			return err
		}
		if err := deletePrefix(ctx, w, EntriesPrefix(collection, uid)); err != nil {
			return err
		}
		return w.Commit(ctx)
	})
	if err != nil {
		return err
	}
	log.Info("index deleted", "collection", collection, "uid", uid)
	return nil
}

// Covers reports whether every condition of idx is an equality field of p,
// which is what lets idx serve a query for p.
func Covers(idx api.Index, p predicate.Predicate) bool {
	return covers(idx, predicate.Equalities(p))
}

func covers(idx api.Index, eq map[string]any) bool {
	if len(idx.Conditions) == 0 {
		return false
	}
	for _, cond := range idx.Conditions {
		if _, ok := eq[cond]; !ok {
			return false
		}
	}
	return true
}

// SelectIndex picks the index serving p, if any. Candidates have every
// condition among the equality fields of p. The most conditions win, then
// an ordering key equal to the range field of p, then the lowest uid, which
// is the first created.
func SelectIndex(indexes []api.Index, p predicate.Predicate) (api.Index, bool) {
	eq := predicate.Equalities(p)
	if len(eq) == 0 {
		return api.Index{}, false
	}
	rangeField, hasRange := predicate.RangeField(p)

	serves := func(idx api.Index) bool {
		return hasRange && idx.OrderingKey == rangeField
	}

	best := -1
	for i, idx := range indexes {
		if !covers(idx, eq) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		cur := indexes[best]
		switch {
		case len(idx.Conditions) != len(cur.Conditions):
			if len(idx.Conditions) > len(cur.Conditions) {
				best = i
			}
		case serves(idx) != serves(cur):
			if serves(idx) {
				best = i
			}
		case idx.UID < cur.UID:
			best = i
		}
	}
	if best < 0 {
		return api.Index{}, false
	}
	return indexes[best], true
}
