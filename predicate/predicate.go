// Package predicate implements the boolean filter trees used by queries.
//
// A predicate is one of Eq, Range or And. The set is closed: the unexported
// marker method keeps other packages from adding node kinds, and every
// switch over a Predicate handles exactly these three.
package predicate

import (
	"sort"

	"github.com/aep/scopedb/errs"
)

type Predicate interface {
	isPredicate()
}

// Eq matches documents whose value at Field equals Value.
type Eq struct {
	Field string
	Value any
}

// Range matches documents whose value at Field lies in [From, To].
type Range struct {
	Field string
	From  any
	To    any
}

// And matches when every condition matches. An empty And matches everything.
type And struct {
	Conditions []Predicate
}

func (Eq) isPredicate()    {}
func (Range) isPredicate() {}
func (And) isPredicate()   {}

// All returns the predicate that matches every document.
func All() Predicate {
	return And{}
}

// Evaluate reports whether doc satisfies p. A nil predicate matches.
func Evaluate(p Predicate, doc map[string]any) bool {
	switch p := p.(type) {
	case nil:
		return true
	case Eq:
		v, ok := Lookup(doc, p.Field)
		if !ok {
			return false
		}
		c, ok := Compare(v, p.Value)
		return ok && c == 0
	case Range:
		v, ok := Lookup(doc, p.Field)
		if !ok {
			return false
		}
		lo, ok := Compare(v, p.From)
		if !ok || lo < 0 {
			return false
		}
		hi, ok := Compare(v, p.To)
		return ok && hi <= 0
	case And:
		for _, c := range p.Conditions {
			if !Evaluate(c, doc) {
				return false
			}
		}
		return true
	}
	return false
}

// Validate rejects trees that cannot be evaluated meaningfully.
func Validate(p Predicate) error {
	switch p := p.(type) {
	case nil:
		return nil
	case Eq:
		if p.Field == "" {
			return errs.Validationf("eq: field_name must not be empty")
		}
		if !IsScalar(p.Value) {
			return errs.Validationf("eq %s: value must be a string, number or boolean", p.Field)
		}
	case Range:
		if p.Field == "" {
			return errs.Validationf("range: field_name must not be empty")
		}
		if !IsScalar(p.From) || !IsScalar(p.To) {
			return errs.Validationf("range %s: from and to are required and must be scalars", p.Field)
		}
		if c, _ := Compare(p.From, p.To); c > 0 {
			return errs.Validationf("range %s: from must not be greater than to", p.Field)
		}
	case And:
		for _, c := range p.Conditions {
			if err := Validate(c); err != nil {
				return err
			}
		}
	default:
		return errs.Validationf("unknown predicate %T", p)
	}
	return nil
}

// Equalities returns the value bound by an Eq node for every field that has
// one, walking nested Ands. When a field is bound twice the first binding wins;
// the full predicate is still evaluated against every candidate.
func Equalities(p Predicate) map[string]any {
	out := make(map[string]any)
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch p := p.(type) {
		case Eq:
			if _, ok := out[p.Field]; !ok {
				out[p.Field] = p.Value
			}
		case And:
			for _, c := range p.Conditions {
				walk(c)
			}
		}
	}
	walk(p)
	return out
}

// EqualityFields returns the sorted set of fields bound by equality.
func EqualityFields(p Predicate) []string {
	eq := Equalities(p)
	fields := make([]string, 0, len(eq))
	for f := range eq {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// RangeField returns the field constrained by Range nodes when there is
// exactly one such field.
func RangeField(p Predicate) (string, bool) {
	var field string
	var many bool
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch p := p.(type) {
		case Range:
			if field == "" {
				field = p.Field
			} else if field != p.Field {
				many = true
			}
		case And:
			for _, c := range p.Conditions {
				walk(c)
			}
		}
	}
	walk(p)
	if field == "" || many {
		return "", false
	}
	return field, true
}
