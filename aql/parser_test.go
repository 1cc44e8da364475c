package aql

import (
	"encoding/json"
	"testing"

	"github.com/aep/scopedb/predicate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []Token
	}{
		{
			"book",
			[]Token{
				{TOKEN_IDENT, "book"},
				{TOKEN_EOF, ""},
			},
		},
		{
			"book(key=val)",
			[]Token{
				{TOKEN_IDENT, "book"},
				{TOKEN_LPAREN, "("},
				{TOKEN_IDENT, "key"},
				{TOKEN_EQUALS, "="},
				{TOKEN_IDENT, "val"},
				{TOKEN_RPAREN, ")"},
				{TOKEN_EOF, ""},
			},
		},
		{
			`book(category.name="Pulp",, rating=["07", 9.5] id=?)`,
			[]Token{
				{TOKEN_IDENT, "book"},
				{TOKEN_LPAREN, "("},
				{TOKEN_IDENT, "category.name"},
				{TOKEN_EQUALS, "="},
				{TOKEN_STRING, "Pulp"},
				{TOKEN_COMMA, ","},
				{TOKEN_COMMA, ","},
				{TOKEN_IDENT, "rating"},
				{TOKEN_EQUALS, "="},
				{TOKEN_LBRACKET, "["},
				{TOKEN_STRING, "07"},
				{TOKEN_COMMA, ","},
				{TOKEN_IDENT, "9.5"},
				{TOKEN_RBRACKET, "]"},
				{TOKEN_IDENT, "id"},
				{TOKEN_EQUALS, "="},
				{TOKEN_PARAM, "?"},
				{TOKEN_RPAREN, ")"},
				{TOKEN_EOF, ""},
			},
		},
		{
			`"a \"quoted\" word"`,
			[]Token{
				{TOKEN_STRING, `a "quoted" word`},
				{TOKEN_EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		l := NewLexer(tt.input)
		for i, want := range tt.expected {
			tok := l.NextToken()
			assert.Equal(t, want, tok, "%s: token %d", tt.input, i)
		}
	}
}

func TestParser(t *testing.T) {
	tests := []struct {
		input    string
		expected *Query
	}{
		{
			input:    "book",
			expected: &Query{Collection: "book"},
		},
		{
			input: `book(author="Chuck Palhaniuk")`,
			expected: &Query{
				Collection: "book",
				Conditions: []predicate.Predicate{
					predicate.Eq{Field: "author", Value: "Chuck Palhaniuk"},
				},
			},
		},
		{
			input: `book(category.name=Pulp rating=["07", "09"] in_print=true pages=42)`,
			expected: &Query{
				Collection: "book",
				Conditions: []predicate.Predicate{
					predicate.Eq{Field: "category.name", Value: "Pulp"},
					predicate.Range{Field: "rating", From: "07", To: "09"},
					predicate.Eq{Field: "in_print", Value: true},
					predicate.Eq{Field: "pages", Value: json.Number("42")},
				},
			},
		},
		{
			input: `(limit=5 cursor="abc") book()`,
			expected: &Query{
				Collection: "book",
				Limit:      ptr(5),
				Cursor:     ptr("abc"),
			},
		},
		{
			input: `book(rating=07)`,
			expected: &Query{
				Collection: "book",
				Conditions: []predicate.Predicate{
					predicate.Eq{Field: "rating", Value: "07"},
				},
			},
		},
	}

	for _, tt := range tests {
		actual, err := Parse(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, actual, tt.input)
	}
}

func TestEdgeCases(t *testing.T) {
	tests := []string{
		"",
		"book(key==val)",
		`book(key="val)`,
		"book(val)",
		"book(key=val",
		"book(rating=[1])",
		"book(rating=[1, 2)",
		"book(name=?)",
		"book(a=1) extra",
		"(limit=x) book",
		"(limit=1 limit=2) book",
		"(sort=asc) book",
		"book(name=$)",
	}

	for _, input := range tests {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParameterizedQueries(t *testing.T) {
	q, err := Parse(`book(isbn=? rating=[?, ?])`, 7, "07", "09")
	require.NoError(t, err)
	assert.Equal(t, []predicate.Predicate{
		predicate.Eq{Field: "isbn", Value: 7},
		predicate.Range{Field: "rating", From: "07", To: "09"},
	}, q.Conditions)

	_, err = Parse(`book(isbn=?)`, 1, 2)
	assert.Error(t, err, "unused parameters")
}

func TestPredicate(t *testing.T) {
	q, err := Parse("book")
	require.NoError(t, err)
	assert.Nil(t, q.Predicate())

	q, err = Parse(`book(author="x")`)
	require.NoError(t, err)
	assert.Equal(t, predicate.Eq{Field: "author", Value: "x"}, q.Predicate())

	q, err = Parse(`book(author="x" rating=[1, 2])`)
	require.NoError(t, err)
	and, ok := q.Predicate().(predicate.And)
	require.True(t, ok)
	assert.Len(t, and.Conditions, 2)
	assert.NoError(t, predicate.Validate(and))
}

func TestStringRoundTrip(t *testing.T) {
	for _, input := range []string{
		`book`,
		`book(author="Chuck Palhaniuk")`,
		`(limit=5 cursor="abc") book(category.name="Pulp" rating=["07", "09"] pages=42 in_print=true)`,
	} {
		q, err := Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, input, q.String())

		again, err := Parse(q.String())
		require.NoError(t, err)
		assert.Equal(t, q, again)
	}
}

func TestToQueryRequest(t *testing.T) {
	q, err := Parse(`(limit=3) book(author="x")`)
	require.NoError(t, err)

	b, err := json.Marshal(q.ToQueryRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"matches":{"eq":{"field_name":"author","value":"x"}},"limit":3}`, string(b))
}

func ptr[T any](v T) *T {
	return &v
}
