package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Pebbledb serializes all write transactions behind one lock, so a Write
// observes every commit that happened before its first operation and
// conflicts cannot occur. Good enough for a single node.
type Pebbledb struct {
	db *pebble.DB

	globalWriteLock sync.Mutex
}

type PebbleWrite struct {
	p        *Pebbledb
	batch    *pebble.Batch
	db       *pebble.DB
	err      error
	commited bool
	locked   bool
}

var errRolledBack = errors.New("transaction rolled back")

func (w *PebbleWrite) lock() {
	if !w.locked && !w.commited && w.err == nil {
		w.p.globalWriteLock.Lock()
		w.locked = true
	}
}

func (w *PebbleWrite) unlock() {
	if w.locked {
		w.locked = false
		w.p.globalWriteLock.Unlock()
	}
}

func (w *PebbleWrite) Commit(ctx context.Context) error {
	defer w.unlock()
	if w.err != nil {
		return w.err
	}
	if w.commited {
		return fmt.Errorf("already committed")
	}
	err := w.batch.Commit(pebble.Sync)
	if err != nil {
		w.err = err
		return err
	}
	w.commited = true
	return nil
}

func (w *PebbleWrite) Rollback() error {
	w.unlock()
	if w.commited {
		return fmt.Errorf("already committed")
	}
	if w.err != nil {
		return w.err
	}
	w.err = errRolledBack
	return w.batch.Close()
}

func (w *PebbleWrite) Put(key []byte, value []byte) error {
	w.lock()
	if w.err != nil {
		return w.err
	}
	err := w.batch.Set(key, value, pebble.Sync)
	if err != nil {
		w.Rollback()
		w.err = err
	}
	log.Debug("[pebble].Put:", "key", string(key), "err", err)
	return w.err
}

func (w *PebbleWrite) Get(ctx context.Context, key []byte) ([]byte, error) {
	w.lock()
	if w.err != nil {
		return nil, w.err
	}
	return pebbleGet(w.batch, key)
}

func (w *PebbleWrite) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	w.lock()
	if w.err != nil {
		return nil, w.err
	}
	return pebbleBatchGet(w.batch, keys)
}

type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func pebbleGet(r pebbleReader, key []byte) ([]byte, error) {
	val, closer, err := r.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			log.Debug("[pebble].Get:", "key", string(key), "err", "not found")
			return nil, nil
		}
		log.Debug("[pebble].Get:", "key", string(key), "err", err)
		return nil, err
	}
	defer closer.Close()

	// Copy the value since the closer will invalidate it
	result := make([]byte, len(val))
	copy(result, val)

	log.Debug("[pebble].Get:", "key", string(key))
	return result, nil
}

func pebbleBatchGet(r pebbleReader, keys [][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		v, err := pebbleGet(r, key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[string(key)] = v
		}
	}
	log.Debug("[pebble].BatchGet:", "keys", len(keys))
	return out, nil
}

func (w *PebbleWrite) Del(key []byte) error {
	w.lock()
	if w.err != nil {
		return w.err
	}
	err := w.batch.Delete(key, pebble.Sync)
	if err != nil {
		w.Rollback()
		w.err = err
	}
	return w.err
}

func (r *PebbleWrite) Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error] {
	r.lock()
	return func(yield func(KeyAndValue, error) bool) {
		if r.err != nil {
			yield(KeyAndValue{}, r.err)
			return
		}
		iterOptions := &pebble.IterOptions{
			LowerBound: start,
			UpperBound: end,
		}
		it, err := r.batch.NewIter(iterOptions)
		if err != nil {
			yield(KeyAndValue{}, err)
			return
		}
		defer it.Close()

		for it.First(); it.Valid(); it.Next() {
			// Copy key and value since they may be invalidated by iterator movement
			key := append([]byte(nil), it.Key()...)
			val := append([]byte(nil), it.Value()...)

			log.Debug("[pebble].Iter:", "start", string(start), "end", string(end), "at", string(key))
			if !yield(KeyAndValue{K: key, V: val}, nil) {
				return
			}
		}

		if err := it.Error(); err != nil {
			log.Debug("[pebble].Iter:", "start", string(start), "end", string(end), "err", err)
			yield(KeyAndValue{}, err)
		}
	}
}

func (r *PebbleWrite) Close() {
	if r.commited {
		r.batch.Close()
		return
	}
	r.Rollback()
}

type PebbleRead struct {
	snapshot *pebble.Snapshot
	db       *pebble.DB
	err      error
}

func (r *PebbleRead) Get(ctx context.Context, key []byte) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return pebbleGet(r.snapshot, key)
}

func (r *PebbleRead) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return pebbleBatchGet(r.snapshot, keys)
}

func (r *PebbleRead) Close() {
	r.snapshot.Close()
}

func (r *PebbleRead) Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error] {
	return func(yield func(KeyAndValue, error) bool) {
		iterOptions := &pebble.IterOptions{
			LowerBound: start,
			UpperBound: end,
		}
		it, err := r.snapshot.NewIter(iterOptions)
		if err != nil {
			yield(KeyAndValue{}, err)
			return
		}
		defer it.Close()

		for it.First(); it.Valid(); it.Next() {
			// Copy key and value since they may be invalidated by iterator movement
			key := append([]byte(nil), it.Key()...)
			val := append([]byte(nil), it.Value()...)

			log.Debug("[pebble].Iter:", "start", string(start), "end", string(end), "at", string(key))
			if !yield(KeyAndValue{K: key, V: val}, nil) {
				return
			}
		}

		if err := it.Error(); err != nil {
			log.Debug("[pebble].Iter:", "start", string(start), "end", string(end), "err", err)
			yield(KeyAndValue{}, err)
		}
	}
}

func (p *Pebbledb) Close() {
	p.db.Close()
}

func (p *Pebbledb) Write() Write {
	batch := p.db.NewIndexedBatch()
	return &PebbleWrite{p: p, batch: batch, db: p.db, err: nil, commited: false}
}

func (p *Pebbledb) Read() Read {
	snapshot := p.db.NewSnapshot()
	return &PebbleRead{snapshot: snapshot, db: p.db, err: nil}
}

func (p *Pebbledb) ExclusiveWrite(ctx context.Context, keys ...[]byte) (Write, error) {
	w := &PebbleWrite{p: p, batch: p.db.NewIndexedBatch(), db: p.db}
	w.lock()
	return w, nil
}

func (p *Pebbledb) Ping() error {
	// any read proves the store is open
	_, closer, err := p.db.Get([]byte{0})
	if err == pebble.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return closer.Close()
}

func NewPebble(dir string) (KV, error) {
	if dir == "" {
		dir = "pebble-db"
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}

	return &Pebbledb{db: db}, nil
}

// NewMemPebble creates an in-memory database, mostly for tests.
func NewMemPebble() (KV, error) {
	opts := &pebble.Options{
		FS: vfs.NewMem(),
	}

	db, err := pebble.Open("", opts)
	if err != nil {
		return nil, err
	}

	return &Pebbledb{db: db}, nil
}
