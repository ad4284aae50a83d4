package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/redis/go-redis/v9"
)

const downloadURLKeyPrefix = "filevault:download_url:"

// expiryMargin keeps a cached URL from being handed out moments before it
// stops working.
const expiryMargin = 30 * time.Second

// RedisCache implements URLCache using Redis.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisCache caches entries for at most ttl, and never past the URL's
// own expiry.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisCache) Get(ctx context.Context, key string) (objectstore.SignedURL, bool, error) {
	data, err := r.client.Get(ctx, downloadURLKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return objectstore.SignedURL{}, false, nil
		}
		return objectstore.SignedURL{}, false, fmt.Errorf("failed to get cached url: %w", err)
	}

	var u objectstore.SignedURL
	if err := json.Unmarshal(data, &u); err != nil {
		return objectstore.SignedURL{}, false, fmt.Errorf("failed to unmarshal cached url: %w", err)
	}
	return u, true, nil
}

// Set stores u unless it is too close to expiry to be worth caching.
func (r *RedisCache) Set(ctx context.Context, key string, u objectstore.SignedURL) error {
	ttl := r.ttl
	if remaining := u.ExpiresAt.Sub(r.now()) - expiryMargin; remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal url: %w", err)
	}
	if err := r.client.Set(ctx, downloadURLKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache url: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = downloadURLKeyPrefix + k
	}
	if err := r.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}
