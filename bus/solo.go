package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("subscription closed")

// SoloBus delivers within a single process.
type SoloBus struct {
	m    sync.Mutex
	subs map[string]map[*soloSubscription]struct{}
}

type soloSubscription struct {
	bus   *SoloBus
	topic string
	ch    chan []byte
	done  chan struct{}
	once  sync.Once
}

func (s *soloSubscription) Recv(ctx context.Context) ([]byte, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *soloSubscription) Close() {
	s.once.Do(func() {
		s.bus.m.Lock()
		delete(s.bus.subs[s.topic], s)
		s.bus.m.Unlock()
		close(s.done)
	})
}

func (self *SoloBus) Send(topic string, v []byte) error {
	self.m.Lock()
	defer self.m.Unlock()

	for sub := range self.subs[topic] {
		select {
		case sub.ch <- v:
		default:
			log.Warn("[solo] subscriber too slow, dropping message", "topic", topic)
		}
	}

	return nil
}

func (self *SoloBus) Subscribe(topic string) (Subscription, error) {
	self.m.Lock()
	defer self.m.Unlock()

	sub := &soloSubscription{
		bus:   self,
		topic: topic,
		ch:    make(chan []byte, subscriptionBuffer),
		done:  make(chan struct{}),
	}
	if self.subs[topic] == nil {
		self.subs[topic] = make(map[*soloSubscription]struct{})
	}
	self.subs[topic][sub] = struct{}{}

	return sub, nil
}

func (self *SoloBus) Close() {
	self.m.Lock()
	var all []*soloSubscription
	for _, subs := range self.subs {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	self.m.Unlock()

	for _, sub := range all {
		sub.Close()
	}
}

func NewSolo() (Bus, error) {
	return &SoloBus{
		subs: make(map[string]map[*soloSubscription]struct{}),
	}, nil
}
