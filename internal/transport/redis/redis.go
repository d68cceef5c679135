// Package redis adapts a Redis server to the transport capability: live
// delivery over PUBLISH/SUBSCRIBE, ephemeral history as a capped list with a
// TTL per topic.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"courier/internal/transport"
)

const (
	historyKeyPrefix = "courier:hist:"
	historyCap       = 500
	historyTTL       = 72 * time.Hour
)

// Client is a PubSub backed by one Redis connection pool.
type Client struct {
	rdb *redis.Client
}

// Dial connects to the Redis server at addr and verifies it answers.
func Dial(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Publish fans the payload out to live subscribers and appends it to the
// topic's history list, trimmed to the cap and refreshed to the TTL. The
// history is ephemeral; the durable copy lives in the backing store.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	key := historyKeyPrefix + topic
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -historyCap, -1)
	pipe.Expire(ctx, key, historyTTL)
	pipe.Publish(ctx, topic, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

type subscription struct {
	ps   *redis.PubSub
	done chan struct{}
}

func (s *subscription) Close() error {
	err := s.ps.Close()
	<-s.done
	return err
}

// Subscribe listens on topic until the subscription is closed. Delivery runs
// on a dedicated goroutine per subscription.
func (c *Client) Subscribe(ctx context.Context, topic string, fn func([]byte)) (transport.Subscription, error) {
	ps := c.rdb.Subscribe(ctx, topic)
	// Force the subscription onto the wire before we report success.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	sub := &subscription{ps: ps, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			fn([]byte(msg.Payload))
		}
	}()
	return sub, nil
}

// History returns up to limit recent payloads for topic, oldest first.
func (c *Client) History(ctx context.Context, topic string, limit int) ([][]byte, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	vals, err := c.rdb.LRange(ctx, historyKeyPrefix+topic, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history %s: %w", topic, err)
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

func (c *Client) Close() error { return c.rdb.Close() }

var _ transport.PubSub = (*Client)(nil)
