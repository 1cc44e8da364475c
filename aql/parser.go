// Package aql parses the command line query syntax into predicates.
//
//	(limit=10 cursor="...") book(author="Chuck Palhaniuk" rating=["07", "09"])
//
// A bare value after = is an equality, a bracketed pair is an inclusive
// range. Values may be ? placeholders filled from the Parse arguments.
package aql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aep/scopedb/predicate"
)

type TokenType int

const (
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF
	TOKEN_IDENT
	TOKEN_EQUALS
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_STRING
	TOKEN_COMMA
	TOKEN_PARAM
)

func tokenName(i TokenType) string {
	switch i {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_IDENT:
		return "IDENT"
	case TOKEN_EQUALS:
		return "EQUALS"
	case TOKEN_LPAREN:
		return "LPAREN"
	case TOKEN_RPAREN:
		return "RPAREN"
	case TOKEN_LBRACKET:
		return "LBRACKET"
	case TOKEN_RBRACKET:
		return "RBRACKET"
	case TOKEN_STRING:
		return "STRING"
	case TOKEN_COMMA:
		return "COMMA"
	case TOKEN_PARAM:
		return "PARAM"
	}
	return "ILLEGAL"
}

type Token struct {
	Type    TokenType
	Literal string
}

type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '.' || l.ch == '-' || l.ch == '+' {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString returns the unquoted content. Backslash escapes follow JSON.
func (l *Lexer) readString() (string, error) {
	position := l.position
	for {
		l.readChar()
		if l.ch == 0 {
			return "", errors.New("unterminated string")
		}
		if l.ch == '\\' {
			l.readChar()
			continue
		}
		if l.ch == '"' {
			break
		}
	}
	var s string
	if err := json.Unmarshal([]byte(l.input[position:l.position+1]), &s); err != nil {
		return "", err
	}
	return s, nil
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	switch l.ch {
	case '=':
		tok = Token{TOKEN_EQUALS, string(l.ch)}
	case '(':
		tok = Token{TOKEN_LPAREN, string(l.ch)}
	case ')':
		tok = Token{TOKEN_RPAREN, string(l.ch)}
	case '[':
		tok = Token{TOKEN_LBRACKET, string(l.ch)}
	case ']':
		tok = Token{TOKEN_RBRACKET, string(l.ch)}
	case ',':
		tok = Token{TOKEN_COMMA, string(l.ch)}
	case '?':
		tok = Token{TOKEN_PARAM, string(l.ch)}
	case '"':
		if str, err := l.readString(); err == nil {
			tok = Token{TOKEN_STRING, str}
		} else {
			tok = Token{TOKEN_ILLEGAL, ""}
		}
	case 0:
		tok = Token{TOKEN_EOF, ""}
	default:
		if isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '-' {
			tok.Literal = l.readIdentifier()
			tok.Type = TOKEN_IDENT
			return tok
		}
		tok = Token{TOKEN_ILLEGAL, string(l.ch)}
	}

	l.readChar()
	return tok
}

type Query struct {
	Collection string
	Conditions []predicate.Predicate
	Limit      *int
	Cursor     *string
}

// Predicate combines the conditions. No conditions is nil, which matches
// every document.
func (q *Query) Predicate() predicate.Predicate {
	switch len(q.Conditions) {
	case 0:
		return nil
	case 1:
		return q.Conditions[0]
	}
	return predicate.And{Conditions: q.Conditions}
}

func (q *Query) String() string {
	var parts []string

	var opts []string
	if q.Limit != nil {
		opts = append(opts, fmt.Sprintf("limit=%d", *q.Limit))
	}
	if q.Cursor != nil {
		opts = append(opts, "cursor="+quote(*q.Cursor))
	}
	if len(opts) > 0 {
		parts = append(parts, "("+strings.Join(opts, " ")+")")
	}

	s := q.Collection
	if len(q.Conditions) > 0 {
		filters := make([]string, 0, len(q.Conditions))
		for _, c := range q.Conditions {
			switch c := c.(type) {
			case predicate.Eq:
				filters = append(filters, c.Field+"="+literal(c.Value))
			case predicate.Range:
				filters = append(filters, fmt.Sprintf("%s=[%s, %s]", c.Field, literal(c.From), literal(c.To)))
			}
		}
		s += "(" + strings.Join(filters, " ") + ")"
	}
	parts = append(parts, s)

	return strings.Join(parts, " ")
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func literal(v any) string {
	switch v := v.(type) {
	case string:
		return quote(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

type Parser struct {
	l        *Lexer
	curToken Token
	params   []any
}

func NewParser(l *Lexer, params ...any) *Parser {
	p := &Parser{l: l, params: params}
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.l.NextToken()
}

func (p *Parser) ParseQuery() (*Query, error) {
	query := &Query{}

	if p.curToken.Type == TOKEN_LPAREN {
		if err := p.parseOptions(query); err != nil {
			return nil, err
		}
	}

	if p.curToken.Type != TOKEN_IDENT {
		return nil, fmt.Errorf("expected collection name, got %s", tokenName(p.curToken.Type))
	}
	query.Collection = p.curToken.Literal
	p.nextToken()

	if p.curToken.Type == TOKEN_LPAREN {
		conditions, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		query.Conditions = conditions
	}

	if p.curToken.Type != TOKEN_EOF {
		return nil, fmt.Errorf("unexpected %s after query", tokenName(p.curToken.Type))
	}
	if len(p.params) > 0 {
		return nil, fmt.Errorf("%d unused parameters", len(p.params))
	}
	return query, nil
}

func (p *Parser) parseOptions(q *Query) error {
	p.nextToken() // consume (

	seen := map[string]bool{}
	for p.curToken.Type != TOKEN_RPAREN && p.curToken.Type != TOKEN_EOF {
		for p.curToken.Type == TOKEN_COMMA {
			p.nextToken()
		}
		if p.curToken.Type == TOKEN_RPAREN {
			break
		}
		if p.curToken.Type != TOKEN_IDENT {
			return fmt.Errorf("expected option name, got %s", tokenName(p.curToken.Type))
		}
		key := p.curToken.Literal
		if seen[key] {
			return fmt.Errorf("opt %s specified twice", key)
		}
		seen[key] = true

		p.nextToken()
		if p.curToken.Type != TOKEN_EQUALS {
			return fmt.Errorf("expected = after %s, got %s", key, tokenName(p.curToken.Type))
		}
		p.nextToken()

		v, err := p.parseValue()
		if err != nil {
			return err
		}

		switch key {
		case "limit":
			n, err := strconv.Atoi(fmt.Sprint(v))
			if err != nil {
				return fmt.Errorf("limit must be an integer")
			}
			q.Limit = &n
		case "cursor":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("cursor must be a string")
			}
			q.Cursor = &s
		default:
			return fmt.Errorf("unknown option %s", key)
		}
	}

	if p.curToken.Type != TOKEN_RPAREN {
		return errors.New("expected )")
	}
	p.nextToken()
	return nil
}

func (p *Parser) parseFilter() ([]predicate.Predicate, error) {
	var conditions []predicate.Predicate

	p.nextToken() // consume (

	for p.curToken.Type != TOKEN_RPAREN && p.curToken.Type != TOKEN_EOF {
		for p.curToken.Type == TOKEN_COMMA {
			p.nextToken()
		}
		if p.curToken.Type == TOKEN_RPAREN {
			break
		}

		if p.curToken.Type != TOKEN_IDENT {
			return nil, fmt.Errorf("expected field name in filter, got %s", tokenName(p.curToken.Type))
		}
		field := p.curToken.Literal
		p.nextToken()

		if p.curToken.Type != TOKEN_EQUALS {
			return nil, fmt.Errorf("expected = after %s, got %s", field, tokenName(p.curToken.Type))
		}
		p.nextToken()

		if p.curToken.Type == TOKEN_LBRACKET {
			r, err := p.parseRange(field)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, r)
			continue
		}

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, predicate.Eq{Field: field, Value: v})
	}

	if p.curToken.Type != TOKEN_RPAREN {
		return nil, errors.New("expected )")
	}
	p.nextToken()

	return conditions, nil
}

func (p *Parser) parseRange(field string) (predicate.Range, error) {
	p.nextToken() // consume [

	from, err := p.parseValue()
	if err != nil {
		return predicate.Range{}, err
	}
	if p.curToken.Type != TOKEN_COMMA {
		return predicate.Range{}, fmt.Errorf("expected , in range of %s, got %s", field, tokenName(p.curToken.Type))
	}
	p.nextToken()

	to, err := p.parseValue()
	if err != nil {
		return predicate.Range{}, err
	}
	if p.curToken.Type != TOKEN_RBRACKET {
		return predicate.Range{}, fmt.Errorf("expected ] in range of %s, got %s", field, tokenName(p.curToken.Type))
	}
	p.nextToken()

	return predicate.Range{Field: field, From: from, To: to}, nil
}

// parseValue consumes one value. Unquoted words are booleans, JSON numbers
// or plain strings.
func (p *Parser) parseValue() (any, error) {
	tok := p.curToken
	var v any
	switch tok.Type {
	case TOKEN_STRING:
		v = tok.Literal
	case TOKEN_PARAM:
		if len(p.params) == 0 {
			return nil, errors.New("not enough parameters")
		}
		v = p.params[0]
		p.params = p.params[1:]
	case TOKEN_IDENT:
		switch {
		case tok.Literal == "true":
			v = true
		case tok.Literal == "false":
			v = false
		case isNumber(tok.Literal):
			v = json.Number(tok.Literal)
		default:
			v = tok.Literal
		}
	default:
		return nil, fmt.Errorf("expected value, got %s", tokenName(tok.Type))
	}
	p.nextToken()
	return v, nil
}

func isNumber(s string) bool {
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

func Parse(input string, params ...any) (*Query, error) {
	l := NewLexer(input)
	p := NewParser(l, params...)
	return p.ParseQuery()
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return unicode.IsDigit(rune(ch))
}
