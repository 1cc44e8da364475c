package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoloBusPubSub(t *testing.T) {
	bus, err := NewSolo()
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub1, err := bus.Subscribe("topic1")
	require.NoError(t, err)
	sub2, err := bus.Subscribe("topic1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, sub := range []Subscription{sub1, sub2} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := sub.Recv(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "test message", string(msg))
		}()
	}

	require.NoError(t, bus.Send("topic1", []byte("test message")))
	wg.Wait()
}

func TestSoloBusRecvTimeout(t *testing.T) {
	bus, err := NewSolo()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := bus.Subscribe("topic")
	require.NoError(t, err)

	_, err = sub.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSoloBusClosedSubscription(t *testing.T) {
	bus, err := NewSolo()
	require.NoError(t, err)

	sub, err := bus.Subscribe("topic")
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	require.NoError(t, bus.Send("topic", []byte("dropped")))

	_, err = sub.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSoloBusOtherTopicsAreIsolated(t *testing.T) {
	bus, err := NewSolo()
	require.NoError(t, err)

	sub, err := bus.Subscribe("a")
	require.NoError(t, err)
	require.NoError(t, bus.Send("b", []byte("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sub.Recv(ctx)
	assert.Error(t, err)
}
