package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the session engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisKeyring defines a public type used by goSession APIs.
//
// RedisKeyring persists credential records in Redis so sessions survive
// process restarts and can be shared across workers of the same client.
// Records expire after the configured TTL; a zero TTL keeps them forever.
type RedisKeyring struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisKeyring describes the newrediskeyring operation and its observable behavior.
func NewRedisKeyring(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisKeyring {
	if prefix == "" {
		prefix = "gosess"
	}
	return &RedisKeyring{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (k *RedisKeyring) key(slot string) string {
	return k.prefix + ":" + slot
}

// Load describes the load operation and its observable behavior.
func (k *RedisKeyring) Load(ctx context.Context, slot string) ([]byte, error) {
	data, err := k.redis.Get(ctx, k.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

// Store describes the store operation and its observable behavior.
func (k *RedisKeyring) Store(ctx context.Context, slot string, data []byte) error {
	if err := k.redis.Set(ctx, k.key(slot), data, k.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete describes the delete operation and its observable behavior.
func (k *RedisKeyring) Delete(ctx context.Context, slot string) error {
	if err := k.redis.Del(ctx, k.key(slot)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
