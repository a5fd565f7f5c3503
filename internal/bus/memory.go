package bus

import (
	"context"
	"sync"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

const defaultBuffer = 256

// MemoryBus is the in-process EventBus driver. Publish walks the subscriber
// list under the bus lock, so every subscriber observes events in publish
// order. A subscriber that falls behind its buffer loses events rather than
// blocking the publisher.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[int64]*memorySubscription
	nextID int64
	buffer int
	log    logger.Logger
}

func NewMemoryBus(log logger.Logger) *MemoryBus {
	return &MemoryBus{
		subs:   make(map[int64]*memorySubscription),
		buffer: defaultBuffer,
		log:    log,
	}
}

func (b *MemoryBus) Publish(_ context.Context, event domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.wants(event.Topic) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.log.Warn("Subscriber buffer full, dropping event",
				"topic", event.Topic, "auction_id", event.AuctionID)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(topics ...domain.Topic) (domain.Subscription, error) {
	sub := &memorySubscription{
		bus:    b,
		topics: make(map[domain.Topic]struct{}, len(topics)),
		ch:     make(chan domain.Event, b.buffer),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	b.mu.Unlock()

	return sub, nil
}

type memorySubscription struct {
	bus    *MemoryBus
	id     int64
	topics map[domain.Topic]struct{}
	ch     chan domain.Event
	once   sync.Once
}

func (s *memorySubscription) wants(topic domain.Topic) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

func (s *memorySubscription) Events() <-chan domain.Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel. The channel
// close happens under the bus lock so no publish can race a send into it.
func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		close(s.ch)
		s.bus.mu.Unlock()
	})
	return nil
}
