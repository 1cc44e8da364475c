package engine

import (
	"context"
	"fmt"
	"iter"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/page"
	"github.com/aep/scopedb/predicate"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// QueryPlansTotal counts queries by the plan that served them. The server
// registers it.
var QueryPlansTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "query_plans_total",
		Help: "Queries served by an index or a full collection scan",
	},
	[]string{"plan"},
)

const scanPlan = "scan"

// Plan is how a query reads the collection: the entries of one index under
// an equality prefix, or every document.
type Plan struct {
	Index  *api.Index
	Prefix []byte
}

func (p Plan) ID() string {
	if p.Index == nil {
		return scanPlan
	}
	return p.Index.UID
}

// plan picks how to read the collection. A cursor pins the plan it was
// issued under, as long as that index still exists and still serves p, so
// pages keep coming from the same scan when indexes are added in between.
func plan(ctx context.Context, r kv.Read, collection string, p predicate.Predicate, pinned string) (Plan, error) {
	if pinned == scanPlan {
		return Plan{Prefix: catalog.DocumentsPrefix(collection)}, nil
	}
	idxs, err := catalog.ListIndexes(ctx, r, collection)
	if err != nil {
		return Plan{}, err
	}

	var (
		idx api.Index
		ok  bool
	)
	if pinned != "" {
		for _, candidate := range idxs {
			if candidate.UID == pinned && catalog.Covers(candidate, p) {
				idx, ok = candidate, true
				break
			}
		}
		if !ok {
			return Plan{}, errs.Validationf("cursor refers to an index that no longer serves this query")
		}
	} else {
		idx, ok = catalog.SelectIndex(idxs, p)
	}
	if !ok {
		return Plan{Prefix: catalog.DocumentsPrefix(collection)}, nil
	}

	prefix, err := catalog.ScanPrefix(idx, predicate.Equalities(p))
	if err != nil {
		return Plan{}, err
	}
	return Plan{Index: &idx, Prefix: prefix}, nil
}

// matches walks the plan from start and yields the documents p accepts,
// each keyed by the storage key it was found under. Index entries are
// resolved to documents batch entries at a time.
func matches(ctx context.Context, r kv.Read, pl Plan, start []byte, p predicate.Predicate, batch int) iter.Seq2[page.Item[api.Document], error] {
	if pl.Index == nil {
		return scan(ctx, r, pl, start, p)
	}
	return func(yield func(page.Item[api.Document], error) bool) {
		entries := make([]kv.KeyAndValue, 0, batch)

		flush := func() bool {
			if len(entries) == 0 {
				return true
			}
			keys := make([][]byte, len(entries))
			for i, e := range entries {
				keys[i] = e.V
			}
			docs, err := r.BatchGet(ctx, keys)
			if err != nil {
				yield(page.Item[api.Document]{}, err)
				return false
			}
			for _, e := range entries {
				raw, ok := docs[string(e.V)]
				if !ok {
					// entry outlived its document
					log.Warn("dangling index entry", "index", pl.Index.UID, "document", string(e.V))
					continue
				}
				var doc api.Document
				if err := kv.Unmarshal(raw, &doc); err != nil {
					yield(page.Item[api.Document]{}, fmt.Errorf("document %q: %w", e.V, err))
					return false
				}
				if !predicate.Evaluate(p, doc) {
					continue
				}
				if !yield(page.Item[api.Document]{Key: e.K, Value: doc}, nil) {
					return false
				}
			}
			entries = entries[:0]
			return true
		}

		for item, err := range r.Iter(ctx, start, kv.PrefixEnd(pl.Prefix)) {
			if err != nil {
				yield(page.Item[api.Document]{}, err)
				return
			}
			entries = append(entries, item)
			if len(entries) == batch && !flush() {
				return
			}
		}
		flush()
	}
}

func scan(ctx context.Context, r kv.Read, pl Plan, start []byte, p predicate.Predicate) iter.Seq2[page.Item[api.Document], error] {
	return func(yield func(page.Item[api.Document], error) bool) {
		for item, err := range r.Iter(ctx, start, kv.PrefixEnd(pl.Prefix)) {
			if err != nil {
				yield(page.Item[api.Document]{}, err)
				return
			}
			var doc api.Document
			if err := kv.Unmarshal(item.V, &doc); err != nil {
				yield(page.Item[api.Document]{}, fmt.Errorf("document %q: %w", item.K, err))
				return
			}
			if !predicate.Evaluate(p, doc) {
				continue
			}
			if !yield(page.Item[api.Document]{Key: item.K, Value: doc}, nil) {
				return
			}
		}
	}
}

// GetAll pages through every document of the collection in id order.
func (e *Engine) GetAll(ctx context.Context, collection string, limit *int, cursor *string) (api.PaginatedResult, error) {
	return e.Query(ctx, collection, nil, limit, cursor)
}

// Query pages through the documents matching p. An index serves the query
// when one fits, otherwise the whole collection is scanned; either way
// every document is checked against the full predicate.
func (e *Engine) Query(ctx context.Context, collection string, p predicate.Predicate, limit *int, cursor *string) (api.PaginatedResult, error) {
	ctx, span := tracer.Start(ctx, "engine.Query", trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	if err := predicate.Validate(p); err != nil {
		return api.PaginatedResult{}, err
	}
	size, err := e.pages.Size(limit)
	if err != nil {
		return api.PaginatedResult{}, err
	}
	if _, err := e.collection(ctx, collection); err != nil {
		return api.PaginatedResult{}, err
	}

	var pinned string
	if cursor != nil && *cursor != "" {
		c, err := page.Decode(*cursor)
		if err != nil {
			return api.PaginatedResult{}, err
		}
		pinned = c.Plan
	}

	r := e.kv.Read()
	defer r.Close()

	pl, err := plan(ctx, r, collection, p, pinned)
	if err != nil {
		return api.PaginatedResult{}, err
	}
	span.SetAttributes(attribute.String("plan", pl.ID()))
	if pl.Index == nil {
		QueryPlansTotal.WithLabelValues("scan").Inc()
	} else {
		QueryPlansTotal.WithLabelValues("index").Inc()
	}

	start, err := page.Resume(pl.ID(), pl.Prefix, kv.PrefixEnd(pl.Prefix), cursor)
	if err != nil {
		return api.PaginatedResult{}, err
	}

	pg, err := page.Collect(matches(ctx, r, pl, start, p, size+1), pl.ID(), size)
	if err != nil {
		return api.PaginatedResult{}, err
	}
	return api.PaginatedResult{Data: pg.Items, HasMore: pg.HasMore, NextCursor: pg.Next}, nil
}
