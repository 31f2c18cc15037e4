package industry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// CachedRepository wraps a Repository with a Redis read-through cache. Every
// inbound message resolves an industry config, so the row is cached for a
// short TTL and invalidated on prompt updates.
type CachedRepository struct {
	inner  Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps the repo with a Redis cache.
func NewCachedRepository(inner Repository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if inner == nil {
		panic("industry: inner repository required")
	}
	if rdb == nil {
		panic("industry: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{inner: inner, redis: rdb, ttl: ttl, logger: logger}
}

func cacheKey(industryType string) string {
	return fmt.Sprintf("industrycfg:%s", industryType)
}

// GetByType returns the cached config when present, otherwise reads through
// to the inner repository and populates the cache. Cache failures degrade to
// a direct read; they never fail the lookup.
func (c *CachedRepository) GetByType(ctx context.Context, industryType string) (*Config, error) {
	data, err := c.redis.Get(ctx, cacheKey(industryType)).Bytes()
	if err == nil {
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err == nil {
			return &cfg, nil
		}
		c.logger.Warn("discarding corrupt industry cache entry", "industry_type", industryType)
	} else if err != redis.Nil {
		c.logger.Warn("industry cache read failed", "industry_type", industryType, "error", err)
	}

	cfg, err := c.inner.GetByType(ctx, industryType)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cfg); err == nil {
		if err := c.redis.Set(ctx, cacheKey(industryType), data, c.ttl).Err(); err != nil {
			c.logger.Warn("industry cache write failed", "industry_type", industryType, "error", err)
		}
	}
	return cfg, nil
}

// UpdatePrompt writes through to the inner repository and drops the cached
// entry so the next lookup sees the new template.
func (c *CachedRepository) UpdatePrompt(ctx context.Context, industryType, promptTemplate string) error {
	if err := c.inner.UpdatePrompt(ctx, industryType, promptTemplate); err != nil {
		return err
	}
	if err := c.redis.Del(ctx, cacheKey(industryType)).Err(); err != nil {
		c.logger.Warn("industry cache invalidation failed", "industry_type", industryType, "error", err)
	}
	return nil
}
