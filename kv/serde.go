package kv

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Values are stored as 'j' followed by JSON, leaving room for other encodings.

func Unmarshal(b []byte, v any) error {
	if len(b) < 1 {
		return errors.New("empty value stored in database")
	}
	if b[0] != 'j' {
		return errors.New("invalid encoding stored in database")
	}
	dec := json.NewDecoder(bytes.NewReader(b[1:]))
	dec.UseNumber()
	return dec.Decode(v)
}

func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte{'j'}, b...), nil
}
