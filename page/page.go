// Package page turns ordered key scans into bounded pages with stateless
// continuation cursors.
package page

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"iter"

	"github.com/aep/scopedb/errs"
)

const (
	DefaultSize = 20
	MaxSize     = 200
)

// Cursor marks the last key returned under a plan. Plan is an index uid or
// "scan", so a cursor cannot be replayed against a different scan.
type Cursor struct {
	Plan string `json:"p"`
	Key  []byte `json:"k"`
}

func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func Decode(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, errs.Validationf("malformed cursor")
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.Plan == "" || len(c.Key) == 0 {
		return Cursor{}, errs.Validationf("malformed cursor")
	}
	return c, nil
}

type Options struct {
	DefaultSize int
	MaxSize     int
}

// Size resolves the requested page size. nil selects the default, values
// above the maximum are clamped.
func (o Options) Size(limit *int) (int, error) {
	def, max := o.DefaultSize, o.MaxSize
	if max < 1 {
		max = MaxSize
	}
	if def < 1 {
		def = DefaultSize
	}
	if def > max {
		def = max
	}
	if limit == nil {
		return def, nil
	}
	if *limit < 1 {
		return 0, errs.Validationf("limit must be at least 1")
	}
	if *limit > max {
		return max, nil
	}
	return *limit, nil
}

// Resume returns where a scan over [start, end) continues. Without a cursor
// that is start, otherwise the key right after the one the cursor holds.
func Resume(plan string, start, end []byte, cursor *string) ([]byte, error) {
	if cursor == nil || *cursor == "" {
		return start, nil
	}
	c, err := Decode(*cursor)
	if err != nil {
		return nil, err
	}
	if c.Plan != plan {
		return nil, errs.Validationf("cursor belongs to a different query")
	}
	if bytes.Compare(c.Key, start) < 0 || (end != nil && bytes.Compare(c.Key, end) >= 0) {
		return nil, errs.Validationf("cursor belongs to a different query")
	}
	return append(bytes.Clone(c.Key), 0x00), nil
}

type Item[T any] struct {
	Key   []byte
	Value T
}

type Page[T any] struct {
	Items   []T
	HasMore bool
	Next    *string
}

// Collect takes size items from seq plus one more to learn whether the
// scan continues. seq must yield keys in ascending order.
func Collect[T any](seq iter.Seq2[Item[T], error], plan string, size int) (Page[T], error) {
	var items []Item[T]
	for item, err := range seq {
		if err != nil {
			return Page[T]{}, err
		}
		items = append(items, item)
		if len(items) > size {
			break
		}
	}

	p := Page[T]{Items: make([]T, 0, min(len(items), size))}
	if len(items) > size {
		p.HasMore = true
		next := Cursor{Plan: plan, Key: items[size-1].Key}.Encode()
		p.Next = &next
		items = items[:size]
	}
	for _, item := range items {
		p.Items = append(p.Items, item.Value)
	}
	return p, nil
}
