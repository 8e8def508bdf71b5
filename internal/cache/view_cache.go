// internal/cache/view_cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when nothing is cached for the key.
var ErrMiss = errors.New("cache miss")

// ViewCache stores encoded listing views keyed by listing id.
type ViewCache interface {
	Get(ctx context.Context, id uuid.UUID) ([]byte, error)
	Set(ctx context.Context, id uuid.UUID, data []byte) error
	Invalidate(ctx context.Context, id uuid.UUID) error
	Close() error
}

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

type RedisViewCache struct {
	client client
	ttl    time.Duration
}

func NewRedisViewCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisViewCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisViewCache{client: rdb, ttl: ttl}, nil
}

func key(id uuid.UUID) string {
	return "book:view:" + id.String()
}

func (c *RedisViewCache) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *RedisViewCache) Set(ctx context.Context, id uuid.UUID, data []byte) error {
	return c.client.Set(ctx, key(id), data, c.ttl).Err()
}

func (c *RedisViewCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, key(id)).Err()
}

func (c *RedisViewCache) Close() error {
	return c.client.Close()
}

// NoopViewCache never stores anything.
type NoopViewCache struct{}

func (NoopViewCache) Get(context.Context, uuid.UUID) ([]byte, error) { return nil, ErrMiss }
func (NoopViewCache) Set(context.Context, uuid.UUID, []byte) error   { return nil }
func (NoopViewCache) Invalidate(context.Context, uuid.UUID) error    { return nil }
func (NoopViewCache) Close() error                                   { return nil }
