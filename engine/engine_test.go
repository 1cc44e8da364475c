package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/aep/scopedb/api"
	"github.com/aep/scopedb/catalog"
	"github.com/aep/scopedb/errs"
	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/page"
	"github.com/aep/scopedb/predicate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Engine, *catalog.Catalog) {
	k, err := kv.NewMemPebble()
	require.NoError(t, err)
	t.Cleanup(k.Close)

	cat, err := catalog.New(k, nil, time.Minute)
	require.NoError(t, err)
	t.Cleanup(cat.Close)

	_, err = cat.Create(t.Context(), api.Collection{Name: "category", IDKey: "id"})
	require.NoError(t, err)
	_, err = cat.Create(t.Context(), api.Collection{
		Name:  "book",
		IDKey: "isbn",
		Fields: []api.Field{
			{Name: "author", Type: api.FieldString},
			{Name: "category.name", Type: api.FieldString},
		},
	})
	require.NoError(t, err)

	return New(k, cat, page.Options{DefaultSize: 20, MaxSize: 200}), cat
}

func book(isbn, title, author, category, rating string) api.Document {
	return api.Document{
		"isbn":     isbn,
		"title":    title,
		"author":   author,
		"rating":   rating,
		"category": map[string]any{"name": category},
	}
}

func seedBooks(t *testing.T, e *Engine) {
	for _, b := range []api.Document{
		book("1", "Fight Club", "Chuck Palhaniuk", "Pulp", "08"),
		book("2", "Choke", "Chuck Palhaniuk", "Pulp", "07"),
		book("3", "Män som hatar kvinnor", "Stieg Larsson", "Thriller", "07"),
		book("4", "Pulp", "Charles Bukowski", "Pulp", "05"),
		book("5", "Filth", "Irvine Welsh", "Pulp", "06"),
	} {
		_, err := e.Create(t.Context(), "book", b)
		require.NoError(t, err)
	}
}

func titles(docs []api.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["title"].(string))
	}
	sort.Strings(out)
	return out
}

func TestQueryByAuthorIndex(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()

	_, err := cat.CreateIndex(ctx, api.Index{Collection: api.Collection{Name: "book"}, Name: "book__author", Conditions: []string{"author"}})
	require.NoError(t, err)
	seedBooks(t, e)

	before := planCount(t, "index")
	res, err := e.Query(ctx, "book", predicate.Eq{Field: "author", Value: "Chuck Palhaniuk"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Choke", "Fight Club"}, titles(res.Data))
	assert.False(t, res.HasMore)
	assert.Nil(t, res.NextCursor)
	assert.Equal(t, before+1, planCount(t, "index"))
}

func TestQueryRangeWithinCategory(t *testing.T) {
	e, _ := setup(t)
	seedBooks(t, e)

	res, err := e.Query(t.Context(), "book", predicate.And{Conditions: []predicate.Predicate{
		predicate.Eq{Field: "category.name", Value: "Pulp"},
		predicate.Range{Field: "rating", From: "07", To: "09"},
	}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Choke", "Fight Club"}, titles(res.Data))
}

func TestIndexAndScanAgree(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()
	seedBooks(t, e)

	queries := []predicate.Predicate{
		predicate.Eq{Field: "author", Value: "Chuck Palhaniuk"},
		predicate.Eq{Field: "category.name", Value: "Pulp"},
		predicate.And{Conditions: []predicate.Predicate{
			predicate.Eq{Field: "category.name", Value: "Pulp"},
			predicate.Range{Field: "rating", From: "06", To: "07"},
		}},
		predicate.And{Conditions: []predicate.Predicate{
			predicate.Eq{Field: "category.name", Value: "Pulp"},
			predicate.Eq{Field: "author", Value: "Irvine Welsh"},
		}},
		predicate.Eq{Field: "author", Value: "Nobody"},
	}

	scanned := make([][]string, len(queries))
	for i, q := range queries {
		res, err := e.Query(ctx, "book", q, nil, nil)
		require.NoError(t, err)
		scanned[i] = titles(res.Data)
	}

	for _, idx := range []api.Index{
		{Name: "by_author", Conditions: []string{"author"}},
		{Name: "by_category", Conditions: []string{"category.name"}, OrderingKey: "rating"},
		{Name: "by_both", Conditions: []string{"category.name", "author"}},
	} {
		idx.Collection.Name = "book"
		_, err := cat.CreateIndex(ctx, idx)
		require.NoError(t, err)
	}

	for i, q := range queries {
		res, err := e.Query(ctx, "book", q, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, scanned[i], titles(res.Data), "query %d", i)
	}
}

func TestPaginationCoversEverything(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()

	_, err := cat.CreateIndex(ctx, api.Index{Collection: api.Collection{Name: "book"}, Name: "by_author", Conditions: []string{"author"}})
	require.NoError(t, err)

	for i := range 23 {
		author := "even"
		if i%2 == 1 {
			author = "odd"
		}
		_, err := e.Create(ctx, "book", api.Document{"isbn": fmt.Sprintf("isbn-%02d", i), "title": fmt.Sprint(i), "author": author})
		require.NoError(t, err)
	}

	collect := func(q predicate.Predicate) []string {
		var all []string
		var cursor *string
		limit := 5
		for pages := 0; ; pages++ {
			require.Less(t, pages, 10)
			res, err := e.Query(ctx, "book", q, &limit, cursor)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Data), limit)
			all = append(all, titles(res.Data)...)
			if !res.HasMore {
				assert.Nil(t, res.NextCursor)
				return all
			}
			require.NotNil(t, res.NextCursor)
			cursor = res.NextCursor
		}
	}

	all := collect(nil)
	assert.Len(t, all, 23)

	odd := collect(predicate.Eq{Field: "author", Value: "odd"})
	assert.Len(t, odd, 11)
	seen := map[string]bool{}
	for _, s := range odd {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}

	// getAll uses the default size
	res, err := e.GetAll(ctx, "book", nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 20)
	assert.True(t, res.HasMore)

	// a scan cursor keeps its scan even where an index would serve
	rest, err := e.Query(ctx, "book", predicate.Eq{Field: "author", Value: "odd"}, nil, res.NextCursor)
	require.NoError(t, err)
	require.Len(t, rest.Data, 1)
	assert.Equal(t, "21", rest.Data[0]["title"])

	zero := 0
	_, err = e.GetAll(ctx, "book", &zero, nil)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestCursorSurvivesIndexChanges(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()
	seedBooks(t, e)

	pulp := predicate.Eq{Field: "category.name", Value: "Pulp"}
	limit := 2

	first, err := e.Query(ctx, "book", pulp, &limit, nil)
	require.NoError(t, err)
	require.True(t, first.HasMore)

	idx, err := cat.CreateIndex(ctx, api.Index{Collection: api.Collection{Name: "book"}, Name: "by_category", Conditions: []string{"category.name"}})
	require.NoError(t, err)

	got := titles(first.Data)
	cursor := first.NextCursor
	for cursor != nil {
		next, err := e.Query(ctx, "book", pulp, &limit, cursor)
		require.NoError(t, err, "scan cursor from before the index was created")
		got = append(got, titles(next.Data)...)
		cursor = next.NextCursor
	}
	sort.Strings(got)
	assert.Equal(t, []string{"Choke", "Fight Club", "Filth", "Pulp"}, got)

	// pages now come from the index, until it is dropped
	viaIndex, err := e.Query(ctx, "book", pulp, &limit, nil)
	require.NoError(t, err)
	require.NotNil(t, viaIndex.NextCursor)

	require.NoError(t, cat.DeleteIndex(ctx, "book", idx.UID))
	_, err = e.Query(ctx, "book", pulp, &limit, viaIndex.NextCursor)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestDocumentLifecycle(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()

	_, err := cat.CreateIndex(ctx, api.Index{Collection: api.Collection{Name: "book"}, Name: "by_author", Conditions: []string{"author"}})
	require.NoError(t, err)

	_, err = e.Create(ctx, "book", book("9", "Snuff", "Chuck Palhaniuk", "Pulp", "04"))
	require.NoError(t, err)

	_, err = e.Create(ctx, "book", book("9", "Snuff", "Chuck Palhaniuk", "Pulp", "04"))
	assert.True(t, errors.Is(err, errs.ErrConflict))

	got, err := e.Get(ctx, "book", "9")
	require.NoError(t, err)
	assert.Equal(t, "Snuff", got["title"])

	_, err = e.Update(ctx, "book", "9", book("9", "Snuff", "Anonymous", "Pulp", "04"))
	require.NoError(t, err)

	res, err := e.Query(ctx, "book", predicate.Eq{Field: "author", Value: "Chuck Palhaniuk"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Data, "old index entry is gone")

	res, err = e.Query(ctx, "book", predicate.Eq{Field: "author", Value: "Anonymous"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)

	_, err = e.Update(ctx, "book", "10", book("9", "Snuff", "Anonymous", "Pulp", "04"))
	assert.True(t, errors.Is(err, errs.ErrValidation), "id mismatch")

	_, err = e.Update(ctx, "book", "10", book("10", "Snuff", "Anonymous", "Pulp", "04"))
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	require.NoError(t, e.Delete(ctx, "book", "9"))
	assert.True(t, errors.Is(e.Delete(ctx, "book", "9"), errs.ErrNotFound))

	_, err = e.Get(ctx, "book", "9")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	res, err = e.Query(ctx, "book", predicate.Eq{Field: "author", Value: "Anonymous"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestCreateRejects(t *testing.T) {
	e, _ := setup(t)
	ctx := t.Context()

	_, err := e.Create(ctx, "book", api.Document{"title": "no isbn"})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = e.Create(ctx, "book", api.Document{"isbn": "1", "author": 42})
	assert.True(t, errors.Is(err, errs.ErrValidation), "author is declared as a string")

	_, err = e.Create(ctx, "movie", api.Document{"id": "1"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = e.Create(ctx, catalog.SystemAuthorizations, api.Document{"client_id": "x"})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = e.Query(ctx, "book", predicate.Range{Field: "rating", From: "09", To: "07"}, nil, nil)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestNumericIDs(t *testing.T) {
	e, _ := setup(t)
	ctx := t.Context()

	_, err := e.Create(ctx, "category", api.Document{"id": 7, "name": "Pulp"})
	require.NoError(t, err)

	got, err := e.Get(ctx, "category", "7")
	require.NoError(t, err)
	assert.Equal(t, "Pulp", got["name"])

	_, err = e.Create(ctx, "category", api.Document{"id": "07", "name": "dup"})
	assert.True(t, errors.Is(err, errs.ErrConflict), "07 and 7 are the same id")

	got, err = e.Get(ctx, "category", "7.0")
	require.NoError(t, err)
	assert.Equal(t, "Pulp", got["name"])

	_, err = e.Get(ctx, "category", "7.000000000000001")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestLargeNumericIDsStayDistinct(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()

	_, err := cat.CreateIndex(ctx, api.Index{Collection: api.Collection{Name: "category"}, Name: "by_code", Conditions: []string{"code"}})
	require.NoError(t, err)

	_, err = e.Create(ctx, "category", api.Document{"id": "9007199254740993", "code": "9007199254740993", "name": "a"})
	require.NoError(t, err)
	_, err = e.Create(ctx, "category", api.Document{"id": "9007199254740992", "code": "9007199254740992", "name": "b"})
	require.NoError(t, err, "ids beyond 2^53 are not merged")

	got, err := e.Get(ctx, "category", "9007199254740992")
	require.NoError(t, err)
	assert.Equal(t, "b", got["name"])
	got, err = e.Get(ctx, "category", "9007199254740993")
	require.NoError(t, err)
	assert.Equal(t, "a", got["name"])

	for _, field := range []string{"id", "code"} {
		res, err := e.Query(ctx, "category", predicate.Eq{Field: field, Value: "9007199254740992"}, nil, nil)
		require.NoError(t, err)
		require.Len(t, res.Data, 1, field)
		assert.Equal(t, "b", res.Data[0]["name"], field)
	}

	res, err := e.Query(ctx, "category", predicate.Eq{Field: "code", Value: json.Number("12345678901234567890")}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestDeletedCollectionIsGone(t *testing.T) {
	e, cat := setup(t)
	ctx := t.Context()
	seedBooks(t, e)

	require.NoError(t, cat.Delete(ctx, "book"))

	_, err := e.GetAll(ctx, "book", nil, nil)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = e.Create(ctx, "book", book("1", "Fight Club", "Chuck Palhaniuk", "Pulp", "08"))
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
