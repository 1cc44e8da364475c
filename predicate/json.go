package predicate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aep/scopedb/errs"
)

// Wire shapes:
//
//	{"eq":    {"field_name": "author", "value": "Chuck Palahniuk"}}
//	{"range": {"field_name": "rating", "from": "07", "to": "09"}}
//	{"and":   [ <predicate>, ... ]}

type wireEq struct {
	FieldName string `json:"field_name"`
	Value     any    `json:"value"`
}

type wireRange struct {
	FieldName string `json:"field_name"`
	From      any    `json:"from"`
	To        any    `json:"to"`
}

// Node carries a Predicate through encoding/json.
type Node struct {
	Predicate
}

func (n Node) MarshalJSON() ([]byte, error) {
	return Marshal(n.Predicate)
}

func (n *Node) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		n.Predicate = nil
		return nil
	}
	p, err := Unmarshal(b)
	if err != nil {
		return err
	}
	n.Predicate = p
	return nil
}

func Marshal(p Predicate) ([]byte, error) {
	v, err := toWire(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func toWire(p Predicate) (any, error) {
	switch p := p.(type) {
	case nil:
		return nil, nil
	case Eq:
		return map[string]any{"eq": wireEq{FieldName: p.Field, Value: p.Value}}, nil
	case Range:
		return map[string]any{"range": wireRange{FieldName: p.Field, From: p.From, To: p.To}}, nil
	case And:
		children := make([]any, 0, len(p.Conditions))
		for _, c := range p.Conditions {
			w, err := toWire(c)
			if err != nil {
				return nil, err
			}
			children = append(children, w)
		}
		return map[string]any{"and": children}, nil
	}
	return nil, fmt.Errorf("unknown predicate %T", p)
}

// Unmarshal decodes the wire shape. Numbers are kept as json.Number so that
// their textual form survives for comparisons.
func Unmarshal(b []byte) (Predicate, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	var node map[string]json.RawMessage
	if err := decode(b, &node); err != nil {
		return nil, errs.Validationf("invalid predicate: %w", err)
	}
	if len(node) != 1 {
		return nil, errs.Validationf("predicate must have exactly one of eq, range, and")
	}

	for kind, raw := range node {
		switch kind {
		case "eq":
			var w wireEq
			if err := decode(raw, &w); err != nil {
				return nil, errs.Validationf("invalid eq: %w", err)
			}
			return Eq{Field: w.FieldName, Value: w.Value}, nil
		case "range":
			var w wireRange
			if err := decode(raw, &w); err != nil {
				return nil, errs.Validationf("invalid range: %w", err)
			}
			return Range{Field: w.FieldName, From: w.From, To: w.To}, nil
		case "and":
			var raws []json.RawMessage
			if err := decode(raw, &raws); err != nil {
				return nil, errs.Validationf("invalid and: %w", err)
			}
			and := And{Conditions: make([]Predicate, 0, len(raws))}
			for _, r := range raws {
				c, err := Unmarshal(r)
				if err != nil {
					return nil, err
				}
				if c == nil {
					return nil, errs.Validationf("and: null condition")
				}
				and.Conditions = append(and.Conditions, c)
			}
			return and, nil
		default:
			return nil, errs.Validationf("unknown predicate kind %q", kind)
		}
	}
	return nil, nil
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
