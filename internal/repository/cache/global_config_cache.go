package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/redis/go-redis/v9"
)

const globalConfigKey = "chatbot:global_config"

// GlobalConfigCache stores the typed chat configuration in Redis. A nil client
// turns every call into a miss.
type GlobalConfigCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewGlobalConfigCache(rdb *redis.Client, ttl time.Duration) *GlobalConfigCache {
	return &GlobalConfigCache{rdb: rdb, ttl: ttl}
}

func (c *GlobalConfigCache) Get(ctx context.Context) (*entity.GlobalConfig, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, globalConfigKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var cfg entity.GlobalConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (c *GlobalConfigCache) Set(ctx context.Context, cfg *entity.GlobalConfig) error {
	if c == nil || c.rdb == nil || cfg == nil {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, globalConfigKey, raw, c.ttl).Err()
}

func (c *GlobalConfigCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, globalConfigKey).Err()
}
