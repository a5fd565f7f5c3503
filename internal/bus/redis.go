package bus

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

const eventsChannel = "auctionhall.events"

// RedisBus carries the event envelope as JSON over a single Redis pub/sub
// channel and filters topics on the consumer side. Semantics match the memory
// driver: publish-time subscribers only, no backlog.
type RedisBus struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisBus(client *redis.Client, log logger.Logger) *RedisBus {
	return &RedisBus{client: client, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return domain.Wrap(domain.CodeInternal, "marshal event", err)
	}
	if err := b.client.Publish(ctx, eventsChannel, data).Err(); err != nil {
		return domain.Wrap(domain.CodeUnavailable, "publish event", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(topics ...domain.Topic) (domain.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, eventsChannel)

	// Force the subscription to be established before returning, otherwise
	// events published right after Subscribe could be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, domain.Wrap(domain.CodeUnavailable, "subscribe", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		cancel: cancel,
		topics: make(map[domain.Topic]struct{}, len(topics)),
		ch:     make(chan domain.Event, defaultBuffer),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	go sub.run(ctx, b.log)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	topics map[domain.Topic]struct{}
	ch     chan domain.Event
	once   sync.Once
}

func (s *redisSubscription) run(ctx context.Context, log logger.Logger) {
	defer close(s.ch)

	msgs := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("Failed to decode event", "payload", msg.Payload, "error", err)
				continue
			}
			if !s.wants(event.Topic) {
				continue
			}
			select {
			case s.ch <- event:
			default:
				log.Warn("Subscriber buffer full, dropping event",
					"topic", event.Topic, "auction_id", event.AuctionID)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *redisSubscription) wants(topic domain.Topic) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

func (s *redisSubscription) Events() <-chan domain.Event {
	return s.ch
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
	})
	return err
}
