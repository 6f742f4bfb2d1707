package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"fincore/internal/domain"
	"fincore/internal/platform/redis"
	"fincore/pkg/platform/sentinel"
)

const walletRiskTTL = 24 * time.Hour

// Cache holds the latest wallet risk reading so score deltas can be computed
// without a database round trip on every webhook.
type Cache interface {
	Get(ctx context.Context, address string) (*domain.WalletRisk, error)
	Set(ctx context.Context, risk domain.WalletRisk) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) key(address string) string {
	return "wallet:risk:" + address
}

func (c *RedisCache) Get(ctx context.Context, address string) (*domain.WalletRisk, error) {
	raw, err := c.client.Get(ctx, c.key(address)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var risk domain.WalletRisk
	if err := json.Unmarshal(raw, &risk); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &risk, nil
}

func (c *RedisCache) Set(ctx context.Context, risk domain.WalletRisk) error {
	raw, err := json.Marshal(risk)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(risk.Address), raw, walletRiskTTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// MemoryCache backs tests and deployments without redis.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]domain.WalletRisk
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]domain.WalletRisk)}
}

func (c *MemoryCache) Get(_ context.Context, address string) (*domain.WalletRisk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	risk, ok := c.entries[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := risk
	return &out, nil
}

func (c *MemoryCache) Set(_ context.Context, risk domain.WalletRisk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[risk.Address] = risk
	return nil
}
