package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/hospital/pkg/common/logger"
)

// CacheClient is the subset of *redis.Client used by Cached.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cached serves Get through a redis read-through cache and drops the key on
// Update and Delete. Lists are never cached. Any cache error falls back to
// the wrapped repository.
type Cached[T Entity, I any] struct {
	next   Repository[T, I]
	client CacheClient
	entity string
	ttl    time.Duration
}

func NewCached[T Entity, I any](next Repository[T, I], client CacheClient, entity string, ttl time.Duration) *Cached[T, I] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached[T, I]{next: next, client: client, entity: entity, ttl: ttl}
}

// CacheKey is the redis key holding one record.
func CacheKey(entity string, id int64) string {
	return fmt.Sprintf("hospital:%s:%d", entity, id)
}

func (c *Cached[T, I]) List(ctx context.Context, query string) ([]T, error) {
	return c.next.List(ctx, query)
}

func (c *Cached[T, I]) Get(ctx context.Context, id int64) (T, error) {
	key := CacheKey(c.entity, id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var record T
		if jsonErr := json.Unmarshal(data, &record); jsonErr == nil {
			return record, nil
		}
		logger.Log.WithField("key", key).Warn("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		logger.Log.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	record, err := c.next.Get(ctx, id)
	if err != nil {
		return record, err
	}
	if payload, err := json.Marshal(record); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return record, nil
}

func (c *Cached[T, I]) Create(ctx context.Context, input I) (T, error) {
	return c.next.Create(ctx, input)
}

func (c *Cached[T, I]) Update(ctx context.Context, id int64, input I) (T, error) {
	record, err := c.next.Update(ctx, id, input)
	if err == nil {
		c.invalidate(ctx, id)
	}
	return record, err
}

func (c *Cached[T, I]) Delete(ctx context.Context, id int64) error {
	err := c.next.Delete(ctx, id)
	if err == nil {
		c.invalidate(ctx, id)
	}
	return err
}

func (c *Cached[T, I]) invalidate(ctx context.Context, id int64) {
	key := CacheKey(c.entity, id)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("cache invalidation failed")
	}
}
