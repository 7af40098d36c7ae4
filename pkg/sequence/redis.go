package sequence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "kos:seq:"
	defaultKeyTTL    = 72 * time.Hour
)

// RedisGenerator keeps one counter key per prefix and day. Keys expire after
// the TTL, long after the day they count has passed.
type RedisGenerator struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// RedisOption configures a RedisGenerator.
type RedisOption func(*RedisGenerator)

// WithKeyPrefix namespaces the counter keys.
func WithKeyPrefix(p string) RedisOption {
	return func(g *RedisGenerator) {
		if p != "" {
			g.keyPrefix = p
		}
	}
}

// WithKeyTTL sets how long a day's counter key is retained.
func WithKeyTTL(ttl time.Duration) RedisOption {
	return func(g *RedisGenerator) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func NewRedisGenerator(client redis.Cmdable, opts ...RedisOption) *RedisGenerator {
	if client == nil {
		panic("sequence: redis client is required")
	}
	g := &RedisGenerator{client: client, keyPrefix: defaultKeyPrefix, ttl: defaultKeyTTL}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RedisGenerator) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	key := g.keyPrefix + prefix + ":" + day(at)

	var incr *redis.IntCmd
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, g.ttl)
		return nil
	})
	if err != nil {
		return "", errors.Join(ErrGeneratorFailure, err)
	}

	return Format(prefix, at, incr.Val()), nil
}
