package kv

import (
	"context"
	"fmt"
	"iter"
)

type KeyAndValue struct {
	K []byte
	V []byte
}

// KV is an ordered transactional key value store.
// Get returns nil, nil for a missing key on every backend.
type KV interface {
	Close()
	Write() Write
	ExclusiveWrite(ctx context.Context, keys ...[]byte) (Write, error)
	Read() Read
	Ping() error
}

type Read interface {
	BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error)
	Get(ctx context.Context, key []byte) ([]byte, error)
	Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error]
	Close()
}

type Write interface {
	Read
	Put(key []byte, value []byte) error
	Del(key []byte) error
	Commit(ctx context.Context) error
	Rollback() error
	Close()
}

// PrefixEnd returns the smallest key greater than every key starting with prefix.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// Open returns the backend named by engine.
func Open(engine string, pebbleDir string, pdEndpoints []string) (KV, error) {
	switch engine {
	case "pebble":
		return NewPebble(pebbleDir)
	case "pebble-mem":
		return NewMemPebble()
	case "tikv":
		return NewTikv(pdEndpoints...)
	}
	return nil, fmt.Errorf("unknown kv engine %q", engine)
}
