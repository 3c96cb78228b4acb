package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cadastre/internal/attrschema/models"
)

// RedisCache shares resolved schemas across processes. Purging bumps a
// generation counter instead of scanning keys: stale entries fall out via
// their TTL while new lookups read through under the new generation.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a Redis-backed schema cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

const generationKey = "cadastre:schema:generation"

func (c *RedisCache) entryKey(ctx context.Context, key string) string {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		gen = 0
	}
	return fmt.Sprintf("cadastre:schema:%d:%s", gen, key)
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.EffectiveSchema, bool) {
	raw, err := c.client.Get(ctx, c.entryKey(ctx, key)).Bytes()
	if err != nil {
		return nil, false
	}
	var schema models.EffectiveSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, false
	}
	return &schema, true
}

func (c *RedisCache) Set(ctx context.Context, key string, schema *models.EffectiveSchema) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.entryKey(ctx, key), raw, c.ttl)
}

func (c *RedisCache) Purge(ctx context.Context) {
	c.client.Incr(ctx, generationKey)
}
