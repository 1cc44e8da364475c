package kv

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tikverr "github.com/tikv/client-go/v2/error"
	"go.uber.org/atomic"
)

func memKV(t *testing.T) KV {
	k, err := NewMemPebble()
	require.NoError(t, err)
	t.Cleanup(k.Close)
	return k
}

func TestKVSerializesWrites(t *testing.T) {
	k := memKV(t)
	ctx := t.Context()

	w1 := k.Write()
	defer w1.Close()
	require.NoError(t, w1.Put([]byte("alice"), []byte("1")))

	var w1committing = atomic.NewBool(false)
	go func() {
		time.Sleep(time.Millisecond * 101)
		w1committing.Store(true)
		assert.NoError(t, w1.Commit(ctx), "first commit must work")
	}()

	w2 := k.Write()
	defer w2.Close()
	current, err := w2.Get(ctx, []byte("alice"))
	require.NoError(t, err)
	require.True(t, w1committing.Load(), "w2 must wait for w1")
	require.Equal(t, "1", string(current), "w2 must observe the earlier commit")

	require.NoError(t, w2.Put([]byte("alice"), []byte("2")))
	require.NoError(t, w2.Commit(ctx), "second commit must work")

	r := k.Read()
	defer r.Close()
	actual, err := r.Get(ctx, []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, "2", string(actual))
}

func TestKVDoesNotPreventDup(t *testing.T) {
	k := memKV(t)

	w1 := k.Write()
	defer w1.Close()
	w1.Put([]byte("alice"), []byte("1"))
	w1.Put([]byte("alice"), []byte("2"))

	err := w1.Commit(t.Context())
	require.NoError(t, err, "kv must allow setting the same key twice within a tx")
}

func TestKVLockReordering(t *testing.T) {
	k := memKV(t)

	var ctx = t.Context()
	var key = []byte("reordertest")

	w1, err := k.ExclusiveWrite(ctx, key)
	require.NoError(t, err)
	defer w1.Close()

	var w1committing = atomic.NewBool(false)
	go func() {
		time.Sleep(time.Millisecond * 101)

		assert.NoError(t, w1.Put(key, []byte("1")))
		w1committing.Store(true)
		assert.NoError(t, w1.Commit(ctx), "first commit must work")
	}()

	w2, err := k.ExclusiveWrite(ctx, key)
	require.NoError(t, err)
	defer w2.Close()

	require.True(t, w1committing.Load(), "not reordered")

	current, err := w2.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "1", string(current))

	require.NoError(t, w2.Put(key, []byte("2")))
	require.NoError(t, w2.Commit(ctx), "second commit must work")

	r := k.Read()
	defer r.Close()
	actual, err := r.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "2", string(actual))
}

func TestRollbackDiscards(t *testing.T) {
	k := memKV(t)
	ctx := t.Context()

	w := k.Write()
	require.NoError(t, w.Put([]byte("a"), []byte("1")))
	require.NoError(t, w.Rollback())
	assert.Error(t, w.Put([]byte("b"), []byte("2")), "a rolled back write is dead")
	w.Close()

	r := k.Read()
	defer r.Close()
	v, err := r.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v)

	// the lock was released
	w2 := k.Write()
	defer w2.Close()
	require.NoError(t, w2.Put([]byte("a"), []byte("3")))
	require.NoError(t, w2.Commit(ctx))
}

func TestReadIsASnapshot(t *testing.T) {
	k := memKV(t)
	ctx := t.Context()

	r := k.Read()
	defer r.Close()

	w := k.Write()
	defer w.Close()
	require.NoError(t, w.Put([]byte("a"), []byte("1")))
	require.NoError(t, w.Commit(ctx))

	v, err := r.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v, "a read does not see later commits")
}

func TestIterBoundsAndPrefixEnd(t *testing.T) {
	k := memKV(t)
	ctx := t.Context()

	w := k.Write()
	defer w.Close()
	for _, key := range []string{"a", "b\xff", "b\xff1", "b\xff2", "b\xff\xff", "c"} {
		require.NoError(t, w.Put([]byte(key), []byte("v")))
	}
	require.NoError(t, w.Commit(ctx))

	r := k.Read()
	defer r.Close()

	prefix := []byte("b\xff")
	var keys []string
	for item, err := range r.Iter(ctx, prefix, PrefixEnd(prefix)) {
		require.NoError(t, err)
		keys = append(keys, string(item.K))
	}
	assert.Equal(t, []string{"b\xff", "b\xff1", "b\xff2", "b\xff\xff"}, keys)

	got, err := r.BatchGet(ctx, [][]byte{[]byte("a"), []byte("missing"), []byte("c")})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}), "an all 0xff prefix has no upper bound")
	assert.Equal(t, []byte("b"), PrefixEnd([]byte("a\xff")))
}

func TestSerde(t *testing.T) {
	b, err := Marshal(map[string]any{"n": 1.5})
	require.NoError(t, err)
	assert.Equal(t, byte('j'), b[0])

	var out map[string]any
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, "1.5", out["n"].(interface{ String() string }).String())

	assert.Error(t, Unmarshal(nil, &out))
	assert.Error(t, Unmarshal([]byte("x{}"), &out))
}

func TestRetryPassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Retry(t.Context(), "test.boom", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	require.NoError(t, Retry(t.Context(), "test.ok", func() error { return nil }))
	assert.Positive(t, testutil.CollectAndCount(CommitDuration))
	assert.Positive(t, testutil.CollectAndCount(LockRetries))
	assert.False(t, IsConflict(boom))
}

func TestRetryRetriesConflicts(t *testing.T) {
	timeout := fmt.Errorf("lock keys: %w", tikverr.ErrLockWaitTimeout)
	assert.True(t, IsConflict(timeout))
	assert.Equal(t, "lock_wait_timeout", classify(timeout))
	assert.Equal(t, "", classify(nil))

	calls := 0
	err := Retry(t.Context(), "test.conflict", func() error {
		calls++
		if calls < 3 {
			return timeout
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestOpen(t *testing.T) {
	k, err := Open("pebble-mem", "", nil)
	require.NoError(t, err)
	defer k.Close()
	assert.NoError(t, k.Ping())

	_, err = Open("etcd", "", nil)
	assert.Error(t, err)
}
