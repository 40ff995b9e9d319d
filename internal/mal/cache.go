package mal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores search results. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, kind Kind, query string) (*Entry, error)
	Set(ctx context.Context, kind Kind, query string, e *Entry) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, Kind, string) (*Entry, error) { return nil, nil }
func (NopCache) Set(context.Context, Kind, string, *Entry) error   { return nil }

// RedisCache keeps results as JSON with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "plankboat:mal:", ttl: ttl}
}

func (c *RedisCache) key(kind Kind, query string) string {
	return c.prefix + string(kind) + ":" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *RedisCache) Get(ctx context.Context, kind Kind, query string) (*Entry, error) {
	data, err := c.client.Get(ctx, c.key(kind, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get from cache: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal cached entry: %w", err)
	}
	return &e, nil
}

func (c *RedisCache) Set(ctx context.Context, kind Kind, query string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(kind, query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set in cache: %w", err)
	}
	return nil
}
