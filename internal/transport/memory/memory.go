// Package memory is an in-process PubSub backend used in tests and as the
// reference implementation of the transport capability.
package memory

import (
	"context"
	"sync"

	"courier/internal/transport"
)

// Bus is an in-memory pub/sub network. Safe for concurrent use; multiple
// adapters sharing one Bus see each other's traffic, which is how tests stand
// in two clients.
type Bus struct {
	mu      sync.Mutex
	history map[string][][]byte
	subs    map[string][]*subscription
	closed  bool
}

func NewBus() *Bus {
	return &Bus{
		history: make(map[string][][]byte),
		subs:    make(map[string][]*subscription),
	}
}

type subscription struct {
	bus   *Bus
	topic string
	fn    func([]byte)
}

func (s *subscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.subs[s.topic]
	for i, other := range subs {
		if other == s {
			s.bus.subs[s.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Bus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	cp := append([]byte(nil), payload...)
	b.history[topic] = append(b.history[topic], cp)
	subs := append([]*subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(cp)
	}
	return nil
}

func (b *Bus) Subscribe(_ context.Context, topic string, fn func([]byte)) (transport.Subscription, error) {
	s := &subscription{bus: b, topic: topic, fn: fn}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()
	return s, nil
}

func (b *Bus) History(_ context.Context, topic string, limit int) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.history[topic]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([][]byte(nil), h...), nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

var _ transport.PubSub = (*Bus)(nil)
