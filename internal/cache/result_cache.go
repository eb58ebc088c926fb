package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartcity/gateway/internal/domain"
)

// DefaultTTL is the fallback result lifetime. Predictions over traffic or
// AQI features go stale quickly, so the window is short.
const DefaultTTL = 60 * time.Second

// ResultCache maps a domain-scoped request fingerprint to a previously
// computed response payload. An unreachable or disabled store behaves as a
// guaranteed miss on Get and a no-op on Put; neither operation can fail.
type ResultCache interface {
	Get(ctx context.Context, d domain.Domain, fingerprint string) ([]byte, bool)
	Put(ctx context.Context, d domain.Domain, fingerprint string, payload []byte)
	Reachable(ctx context.Context) bool
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache creates a Redis-backed result cache. A nil client means
// caching is disabled: every Get misses and every Put is dropped.
func NewResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisCache{client: client, ttl: ttl}
}

func key(d domain.Domain, fingerprint string) string {
	return "predict:" + string(d) + ":" + fingerprint
}

// Get returns the cached payload for the fingerprint, or a miss. Store
// errors degrade to a miss.
func (c *redisCache) Get(ctx context.Context, d domain.Domain, fingerprint string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key(d, fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: read failed for %s: %v", d, err)
		return nil, false
	}
	return data, true
}

// Put stores the payload under the fingerprint with the configured TTL.
// Store errors are logged and dropped.
func (c *redisCache) Put(ctx context.Context, d domain.Domain, fingerprint string, payload []byte) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key(d, fingerprint), payload, c.ttl).Err(); err != nil {
		log.Printf("cache: write failed for %s: %v", d, err)
	}
}

// Reachable pings the store; used only for health reporting
func (c *redisCache) Reachable(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}
