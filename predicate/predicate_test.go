package predicate

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aep/scopedb/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func book(title, author, category, rating string) map[string]any {
	return map[string]any{
		"isbn":     title,
		"title":    title,
		"author":   author,
		"rating":   rating,
		"category": map[string]any{"name": category},
	}
}

var books = []map[string]any{
	book("Fight Club", "Chuck Palhaniuk", "Pulp", "08"),
	book("Choke", "Chuck Palhaniuk", "Pulp", "07"),
	book("Män som hatar kvinnor", "Stieg Larsson", "Thriller", "07"),
	book("Pulp", "Charles Bukowski", "Pulp", "05"),
	book("Filth", "Irvine Welsh", "Pulp", "06"),
}

func titles(p Predicate) []string {
	var out []string
	for _, b := range books {
		if Evaluate(p, b) {
			out = append(out, b["title"].(string))
		}
	}
	return out
}

func TestEvaluateEq(t *testing.T) {
	assert.Equal(t, []string{"Fight Club", "Choke"}, titles(Eq{Field: "author", Value: "Chuck Palhaniuk"}))
	assert.Equal(t, []string{"Män som hatar kvinnor"}, titles(Eq{Field: "category.name", Value: "Thriller"}))
	assert.Empty(t, titles(Eq{Field: "publisher", Value: "Norton"}))
}

func TestEvaluateRangeWithinCategory(t *testing.T) {
	p := And{Conditions: []Predicate{
		Eq{Field: "category.name", Value: "Pulp"},
		Range{Field: "rating", From: "07", To: "09"},
	}}
	assert.Equal(t, []string{"Fight Club", "Choke"}, titles(p))
}

func TestAndIsOrderInsensitive(t *testing.T) {
	a := And{Conditions: []Predicate{
		Range{Field: "rating", From: "07", To: "09"},
		Eq{Field: "category.name", Value: "Pulp"},
	}}
	b := And{Conditions: []Predicate{
		Eq{Field: "category.name", Value: "Pulp"},
		Range{Field: "rating", From: "07", To: "09"},
	}}
	assert.Equal(t, titles(a), titles(b))
}

func TestEmptyAndMatchesEverything(t *testing.T) {
	assert.Len(t, titles(And{}), len(books))
	assert.Len(t, titles(nil), len(books))
}

func TestNumericComparison(t *testing.T) {
	doc := map[string]any{"n": json.Number("7"), "s": "10", "b": true, "obj": map[string]any{}}

	assert.True(t, Evaluate(Eq{Field: "n", Value: "07"}, doc))
	assert.True(t, Evaluate(Eq{Field: "n", Value: 7.0}, doc))
	assert.True(t, Evaluate(Range{Field: "s", From: "9", To: "11"}, doc), "10 is numerically inside [9, 11]")
	assert.True(t, Evaluate(Eq{Field: "b", Value: "true"}, doc))
	assert.False(t, Evaluate(Eq{Field: "obj", Value: "x"}, doc), "objects never match")

	c, ok := Compare("abc", 5)
	assert.True(t, ok)
	assert.Equal(t, 1, c, "mixed kinds compare as strings")

	_, ok = Compare([]any{1}, 1)
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"category": map[string]any{"name": "Pulp"},
		"a.b":      "literal",
		"nil":      nil,
	}
	v, ok := Lookup(doc, "category.name")
	assert.True(t, ok)
	assert.Equal(t, "Pulp", v)

	v, ok = Lookup(doc, "a.b")
	assert.True(t, ok)
	assert.Equal(t, "literal", v)

	_, ok = Lookup(doc, "nil")
	assert.False(t, ok)
	_, ok = Lookup(doc, "category.name.first")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(And{}))
	assert.NoError(t, Validate(Range{Field: "rating", From: "07", To: "09"}))

	for _, p := range []Predicate{
		Eq{Field: "", Value: "x"},
		Eq{Field: "a", Value: nil},
		Eq{Field: "a", Value: map[string]any{}},
		Range{Field: "a", From: "x"},
		Range{Field: "a", From: 9, To: 7},
		And{Conditions: []Predicate{Eq{Field: "a"}}},
	} {
		err := Validate(p)
		assert.Error(t, err, "%#v", p)
		assert.True(t, errors.Is(err, errs.ErrValidation))
	}
}

func TestFieldExtraction(t *testing.T) {
	p := And{Conditions: []Predicate{
		Eq{Field: "category.name", Value: "Pulp"},
		And{Conditions: []Predicate{Eq{Field: "author", Value: "x"}}},
		Range{Field: "rating", From: "07", To: "09"},
	}}
	assert.Equal(t, []string{"author", "category.name"}, EqualityFields(p))

	f, ok := RangeField(p)
	assert.True(t, ok)
	assert.Equal(t, "rating", f)

	_, ok = RangeField(And{Conditions: []Predicate{
		Range{Field: "a", From: 1, To: 2},
		Range{Field: "b", From: 1, To: 2},
	}})
	assert.False(t, ok, "two range fields cannot be served by one ordering key")

	_, ok = RangeField(Eq{Field: "a", Value: 1})
	assert.False(t, ok)
}

func TestEncodeKeyOrder(t *testing.T) {
	ordered := []any{-100, -1.5, 0, "07", 8, json.Number("9.5"), 1e9, "", "a", "ab", "ab\x00", "abc", "b"}
	var prev []byte
	for i, v := range ordered {
		k, ok := EncodeKey(v)
		require.True(t, ok, "%v", v)
		if i > 0 {
			assert.Equal(t, -1, bytes.Compare(prev, k), "%v must sort before %v", ordered[i-1], v)
		}
		prev = k
	}

	a, _ := EncodeKey("7")
	b, _ := EncodeKey(json.Number("7.0"))
	assert.Equal(t, a, b, "numerically equal values share a key")

	neg, _ := EncodeKey(-0.0)
	pos, _ := EncodeKey(0)
	assert.Equal(t, neg, pos)

	_, ok := EncodeKey(map[string]any{})
	assert.False(t, ok)
}

func TestLargeNumbersStayDistinct(t *testing.T) {
	c, ok := Compare("9007199254740993", "9007199254740992")
	require.True(t, ok)
	assert.Equal(t, 1, c)

	c, _ = Compare(json.Number("12345678901234567890"), "12345678901234567890.0")
	assert.Equal(t, 0, c)

	ordered := []any{
		"-9007199254740993", "-9007199254740992", json.Number("-1.25"), json.Number("-1.2"),
		json.Number("-0.000001"), 0, json.Number("0.000001"), json.Number("1.2"), json.Number("1.25"),
		"9007199254740992", "9007199254740993", json.Number("1e400"),
	}
	var prev []byte
	for i, v := range ordered {
		k, ok := EncodeKey(v)
		require.True(t, ok, "%v", v)
		if i > 0 {
			assert.Equal(t, -1, bytes.Compare(prev, k), "%v must sort before %v", ordered[i-1], v)
			c, _ := Compare(ordered[i-1], v)
			assert.Equal(t, -1, c)
		}
		prev = k
	}

	assert.True(t, Evaluate(Eq{Field: "id", Value: "9007199254740993"}, map[string]any{"id": json.Number("9007199254740993")}))
	assert.False(t, Evaluate(Eq{Field: "id", Value: "9007199254740992"}, map[string]any{"id": json.Number("9007199254740993")}))
}

func TestJSONRoundTrip(t *testing.T) {
	in := []byte(`{"and":[{"eq":{"field_name":"category.name","value":"Pulp"}},{"range":{"field_name":"rating","from":"07","to":"09"}}]}`)

	var n Node
	require.NoError(t, json.Unmarshal(in, &n))
	assert.Equal(t, []string{"Fight Club", "Choke"}, titles(n.Predicate))

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))

	empty, err := Marshal(And{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"and":[]}`, string(empty))
}

func TestUnmarshalKeepsNumbers(t *testing.T) {
	p, err := Unmarshal([]byte(`{"eq":{"field_name":"price","value":10.50}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("10.50"), p.(Eq).Value)
}

func TestUnmarshalRejects(t *testing.T) {
	for _, in := range []string{
		`{}`,
		`{"eq":{},"range":{}}`,
		`{"or":[]}`,
		`{"and":[null]}`,
		`{"eq":`,
	} {
		_, err := Unmarshal([]byte(in))
		assert.True(t, errors.Is(err, errs.ErrValidation), in)
	}
}

func TestEncodeMissingSortsFirst(t *testing.T) {
	lowest, _ := EncodeKey(-1e300)
	empty, _ := EncodeKey("")
	assert.Equal(t, -1, bytes.Compare(EncodeMissing(), lowest))
	assert.Equal(t, -1, bytes.Compare(EncodeMissing(), empty))
}
