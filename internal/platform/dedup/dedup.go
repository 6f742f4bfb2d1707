// Package dedup guards webhook handlers against duplicate deliveries keyed by
// the provider's event id.
package dedup

import (
	"context"
	"sync"
	"time"

	platformredis "fincore/internal/platform/redis"
)

// Deduper reports whether an event key has been seen inside the TTL window,
// marking it seen as a side effect.
type Deduper interface {
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisDeduper uses SETNX with a TTL; the first delivery wins.
type RedisDeduper struct {
	client *platformredis.Client
	prefix string
}

func NewRedisDeduper(client *platformredis.Client) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: "webhook:seen:"}
}

func (d *RedisDeduper) Seen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := d.client.SetNX(ctx, d.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// MemoryDeduper backs tests and redis-less development runs.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time)}
}

func (d *MemoryDeduper) Seen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if expiry, ok := d.seen[key]; ok && now.Before(expiry) {
		return true, nil
	}
	d.seen[key] = now.Add(ttl)
	return false, nil
}
