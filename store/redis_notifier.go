package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"glasspro-backend/utils"
)

// RedisNotifier publishes change events over Redis pub/sub so that every
// API instance can push updates to its own subscribers.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

type RedisNotifierConfig struct {
	Addr     string
	Password string
	// Prefix is prepended to channel names; defaults to "glasspro".
	Prefix string
}

func NewRedisNotifier(cfg RedisNotifierConfig) (*RedisNotifier, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "glasspro"
	}
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		prefix: prefix,
	}, nil
}

// Ping checks that Redis is reachable.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	if err := n.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (n *RedisNotifier) channel(tenantID, collection string) string {
	return n.prefix + ":" + Path(tenantID, collection)
}

func (n *RedisNotifier) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel(event.TenantID, event.Collection), payload).Err(); err != nil {
		return fmt.Errorf("%w: publish: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Listen subscribes to the collection channel and waits for Redis to confirm
// the subscription, so no event published after Listen returns is missed.
func (n *RedisNotifier) Listen(ctx context.Context, tenantID, collection string) (<-chan ChangeEvent, func(), error) {
	ps := n.client.Subscribe(ctx, n.channel(tenantID, collection))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("%w: subscribe: %v", ErrStoreUnavailable, err)
	}

	out := make(chan ChangeEvent, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					utils.Logger.Warnf("Dropping malformed change event on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, stop, nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
