package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "scopedb."

// Nats uses core NATS subjects. Notifications are not persisted, a node
// that misses one falls back on cache expiry.
type Nats struct {
	nc *nats.Conn
}

type natsSubscription struct {
	sub  *nats.Subscription
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func NewNats(url string) (Bus, error) {
	nc, err := nats.Connect(url, nats.Name("scopedb"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Nats{nc: nc}, nil
}

func (n *Nats) Send(topic string, v []byte) error {
	return n.nc.Publish(subjectPrefix+topic, v)
}

func (n *Nats) Subscribe(topic string) (Subscription, error) {
	s := &natsSubscription{
		ch:   make(chan []byte, subscriptionBuffer),
		done: make(chan struct{}),
	}
	sub, err := n.nc.Subscribe(subjectPrefix+topic, func(m *nats.Msg) {
		select {
		case s.ch <- m.Data:
		default:
			log.Warn("[nats] subscriber too slow, dropping message", "topic", topic)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	s.sub = sub
	// the subscription is registered on the server once Subscribe returns
	if err := n.nc.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return s, nil
}

func (n *Nats) Close() {
	n.nc.Close()
}

func (s *natsSubscription) Recv(ctx context.Context) ([]byte, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *natsSubscription) Close() {
	s.once.Do(func() {
		s.sub.Unsubscribe()
		close(s.done)
	})
}
