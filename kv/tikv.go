package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	pingcaplog "github.com/pingcap/log"
	tikverr "github.com/tikv/client-go/v2/error"
	tikvkv "github.com/tikv/client-go/v2/kv"
	"github.com/tikv/client-go/v2/txnkv"
	"github.com/tikv/client-go/v2/txnkv/txnsnapshot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer trace.Tracer

func init() {
	_, p, _ := pingcaplog.InitLogger(&pingcaplog.Config{})

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	l, err := config.Build()
	if err == nil {
		pingcaplog.ReplaceGlobals(l, p)
	}

	tracer = otel.Tracer("github.com/aep/scopedb/kv")
}

var log = slog.New(tint.NewHandler(os.Stderr, nil))

// lockWait is how long one LockKeys attempt waits before we retry it
// ourselves.
const lockWait = 100 * time.Millisecond

type Tikv struct {
	client *txnkv.Client
}

// TikvWrite is an optimistic transaction, or a pessimistic one when it
// came from ExclusiveWrite.
type TikvWrite struct {
	txn       *txnkv.KVTxn
	err       error
	committed bool
}

// TikvRead reads from a snapshot taken at the current timestamp.
type TikvRead struct {
	snap *txnsnapshot.KVSnapshot
	err  error
}

// tikvIterator is what both transactions and snapshots hand out for scans.
type tikvIterator interface {
	Valid() bool
	Key() []byte
	Value() []byte
	Next() error
	Close()
}

// scan adapts a tikv iterator to iter.Seq2. Keys and values are copied so
// callers may hold on to them across Next.
func scan(ctx context.Context, span string, start, end []byte, open func() (tikvIterator, error)) iter.Seq2[KeyAndValue, error] {
	return func(yield func(KeyAndValue, error) bool) {
		_, sp := tracer.Start(ctx, span)
		defer sp.End()

		it, err := open()
		if err != nil {
			log.Debug("[tikv].Iter:", "start", string(start), "end", string(end), "err", err)
			yield(KeyAndValue{}, err)
			return
		}
		defer it.Close()

		n := 0
		for it.Valid() {
			item := KeyAndValue{
				K: append([]byte(nil), it.Key()...),
				V: append([]byte(nil), it.Value()...),
			}
			n++
			if !yield(item, nil) {
				break
			}
			if err := it.Next(); err != nil {
				log.Debug("[tikv].Iter:", "start", string(start), "end", string(end), "err", err)
				yield(KeyAndValue{}, err)
				break
			}
		}
		sp.SetAttributes(attribute.Int("keys", n))
	}
}

func tikvGet(ctx context.Context, span string, key []byte, get func(context.Context, []byte) ([]byte, error)) ([]byte, error) {
	ctx, sp := tracer.Start(ctx, span)
	defer sp.End()

	b, err := get(ctx, key)
	if tikverr.IsErrNotFound(err) {
		return nil, nil
	}
	if err != nil {
		log.Debug("[tikv].Get:", "key", string(key), "err", err)
		return nil, err
	}
	return b, nil
}

func tikvBatchGet(ctx context.Context, span string, keys [][]byte, get func(context.Context, [][]byte) (map[string][]byte, error)) (map[string][]byte, error) {
	ctx, sp := tracer.Start(ctx, span, trace.WithAttributes(attribute.Int("keys", len(keys))))
	defer sp.End()

	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	out, err := get(ctx, keys)
	if err != nil {
		log.Debug("[tikv].BatchGet:", "keys", len(keys), "err", err)
		return nil, err
	}
	return out, nil
}

func (w *TikvWrite) Commit(ctx context.Context) error {
	if w.err != nil {
		return w.err
	}
	if w.committed {
		return fmt.Errorf("already committed")
	}

	ctx, span := tracer.Start(ctx, "kv.TikvWrite.Commit")
	defer span.End()

	if err := w.txn.Commit(ctx); err != nil {
		w.err = err
		span.SetAttributes(attribute.String("error_type", classify(err)))
		return err
	}
	w.committed = true
	return nil
}

func (w *TikvWrite) Rollback() error {
	if w.committed {
		return fmt.Errorf("already committed")
	}
	if w.err != nil {
		return w.err
	}
	w.err = errRolledBack
	return w.txn.Rollback()
}

func (w *TikvWrite) Put(key []byte, value []byte) error {
	if w.err != nil {
		return w.err
	}
	if err := w.txn.Set(key, value); err != nil {
		w.Rollback()
		w.err = err
	}
	return w.err
}

func (w *TikvWrite) Del(key []byte) error {
	if w.err != nil {
		return w.err
	}
	if err := w.txn.Delete(key); err != nil {
		w.Rollback()
		w.err = err
	}
	return w.err
}

func (w *TikvWrite) Get(ctx context.Context, key []byte) ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return tikvGet(ctx, "kv.TikvWrite.Get", key, w.txn.Get)
}

func (w *TikvWrite) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return tikvBatchGet(ctx, "kv.TikvWrite.BatchGet", keys, w.txn.BatchGet)
}

func (w *TikvWrite) Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error] {
	if w.err != nil {
		err := w.err
		return func(yield func(KeyAndValue, error) bool) { yield(KeyAndValue{}, err) }
	}
	return scan(ctx, "kv.TikvWrite.Iter", start, end, func() (tikvIterator, error) {
		return w.txn.Iter(start, end)
	})
}

func (w *TikvWrite) Close() {
	if !w.committed {
		w.Rollback()
	}
}

func (r *TikvRead) Get(ctx context.Context, key []byte) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return tikvGet(ctx, "kv.TikvRead.Get", key, r.snap.Get)
}

func (r *TikvRead) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return tikvBatchGet(ctx, "kv.TikvRead.BatchGet", keys, r.snap.BatchGet)
}

func (r *TikvRead) Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error] {
	if r.err != nil {
		err := r.err
		return func(yield func(KeyAndValue, error) bool) { yield(KeyAndValue{}, err) }
	}
	return scan(ctx, "kv.TikvRead.Iter", start, end, func() (tikvIterator, error) {
		return r.snap.Iter(start, end)
	})
}

func (r *TikvRead) Close() {}

func (t *Tikv) Close() {
	t.client.Close()
}

func (t *Tikv) Write() Write {
	txn, err := t.client.Begin()
	return &TikvWrite{txn: txn, err: err}
}

// ExclusiveWrite begins a pessimistic transaction holding keys. When a key
// changed after the transaction began, the lock is retaken on a fresh
// transaction so reads see that change.
func (t *Tikv) ExclusiveWrite(ctx context.Context, keys ...[]byte) (Write, error) {
	ctx, span := tracer.Start(ctx, "kv.Tikv.ExclusiveWrite")
	defer span.End()

	start := time.Now()
	begin := func() (*txnkv.KVTxn, error) {
		txn, err := t.client.Begin()
		if err != nil {
			return nil, err
		}
		txn.SetPessimistic(true)
		return txn, nil
	}

	txn, err := begin()
	if err != nil {
		return nil, err
	}

	// No aggressive locking: it deadlocks when two writers take
	// overlapping keys. Short waits retried here instead.
	for attempt := 0; ; attempt++ {
		lkctx := tikvkv.NewLockCtx(txn.StartTS(), lockWait.Milliseconds(), time.Now())
		err = txn.LockKeys(ctx, lkctx, keys...)
		if err == nil {
			LockWaits.Observe(time.Since(start).Seconds())
			span.SetAttributes(attribute.Int("attempts", attempt+1))
			return &TikvWrite{txn: txn}, nil
		}

		switch {
		case tikverr.IsErrWriteConflict(err):
			txn.Rollback()
			if txn, err = begin(); err != nil {
				return nil, err
			}
		case errors.Is(err, tikverr.ErrLockWaitTimeout):
		default:
			txn.Rollback()
			return nil, err
		}

		if ctx.Err() != nil {
			txn.Rollback()
			return nil, ctx.Err()
		}
	}
}

func (t *Tikv) Read() Read {
	ts, err := t.client.CurrentTimestamp("global")
	if err != nil {
		return &TikvRead{err: err}
	}
	return &TikvRead{snap: t.client.GetSnapshot(ts)}
}

func (t *Tikv) Ping() error {
	_, err := t.client.CurrentTimestamp("global")
	return err
}

// NewTikv connects to the placement drivers at pdEndpoints, falling back to
// $PD_ENDPOINT and then the local default.
func NewTikv(pdEndpoints ...string) (KV, error) {
	if len(pdEndpoints) == 0 {
		if ep := os.Getenv("PD_ENDPOINT"); ep != "" {
			pdEndpoints = []string{ep}
		} else {
			pdEndpoints = []string{"127.0.0.1:2379"}
		}
	}
	client, err := txnkv.NewClient(pdEndpoints)
	if err != nil {
		return nil, err
	}
	log.Info("connected to tikv", "pd", pdEndpoints)
	return &Tikv{client: client}, nil
}

// IsConflict reports whether a write lost against another transaction and
// should be retried on a fresh Write.
func IsConflict(err error) bool {
	return classify(err) != ""
}

// classify names the kind of conflict err reports, or "" for any other
// error. The names label the commit failure metrics.
func classify(err error) string {
	switch {
	case err == nil:
		return ""
	case tikverr.IsErrWriteConflict(err):
		return "write_conflict"
	case errors.Is(err, tikverr.ErrLockWaitTimeout):
		return "lock_wait_timeout"
	}
	return ""
}
