package catalog

import (
	"context"

	"github.com/aep/scopedb/kv"
	"github.com/aep/scopedb/predicate"
)

// Storage layout. Names never contain 0xff so it is a safe separator.
//
//	c 0xff <collection>                              collection definition
//	i 0xff <collection> 0xff <uid>                   index definition
//	o 0xff <collection> 0xff <id>                    document
//	x 0xff <collection> 0xff <uid> 0xff <segments>   index entry, value is the document key

func CollectionKey(name string) []byte {
	return append([]byte("c\xff"), name...)
}

// Lock opens a write that holds the collection definition key exclusively.
// Index and collection changes rewrite that key under the lock, so a
// document write queued behind them restarts on a snapshot that sees the
// new index set.
func Lock(ctx context.Context, k kv.KV, collection string) (kv.Write, error) {
	return k.ExclusiveWrite(ctx, CollectionKey(collection))
}

func collectionsPrefix() []byte {
	return []byte("c\xff")
}

func IndexKey(collection, uid string) []byte {
	k := IndexesPrefix(collection)
	return append(k, uid...)
}

func IndexesPrefix(collection string) []byte {
	k := append([]byte("i\xff"), collection...)
	return append(k, 0xff)
}

func DocumentsPrefix(collection string) []byte {
	k := append([]byte("o\xff"), collection...)
	return append(k, 0xff)
}

// DocumentKey places documents in the order of their encoded id.
func DocumentKey(collection string, id any) ([]byte, bool) {
	seg, ok := predicate.EncodeKey(id)
	if !ok {
		return nil, false
	}
	return append(DocumentsPrefix(collection), seg...), true
}

func EntriesPrefix(collection, uid string) []byte {
	k := append([]byte("x\xff"), collection...)
	k = append(k, 0xff)
	k = append(k, uid...)
	return append(k, 0xff)
}

func entriesCollectionPrefix(collection string) []byte {
	k := append([]byte("x\xff"), collection...)
	return append(k, 0xff)
}

// deletePrefix removes every key under prefix inside w.
func deletePrefix(ctx context.Context, w kv.Write, prefix []byte) error {
	var keys [][]byte
	for item, err := range w.Iter(ctx, prefix, kv.PrefixEnd(prefix)) {
		if err != nil {
			return err
		}
		keys = append(keys, item.K)
	}
	for _, k := range keys {
		if err := w.Del(k); err != nil {
			return err
		}
	}
	return nil
}
