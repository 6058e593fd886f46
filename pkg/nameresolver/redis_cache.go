// 文件: pkg/nameresolver/redis_cache.go
// 名称解析器的 Redis 热缓存层 - 装饰器模式
//
// 移植自 futures/cache_repo.go 的 CachedContractRepository：在
// Resolver 的内存+JSON 两级之前再加一层跨进程共享的 Redis 缓存，
// 供多进程调度器共享同一份名称解析结果。

package nameresolver

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "nameresolver:code:"
	redisTTL       = 24 * time.Hour
)

// CachedResolver wraps a Resolver with a Redis-backed hot tier, checked
// before falling through to the wrapped resolver's own cache chain.
type CachedResolver struct {
	inner *Resolver
	redis *redis.Client
}

// NewCachedResolver builds a Redis-fronted resolver around an existing one.
func NewCachedResolver(inner *Resolver, rds *redis.Client) *CachedResolver {
	return &CachedResolver{inner: inner, redis: rds}
}

// GetName checks Redis first, then delegates to the wrapped resolver and
// fills Redis asynchronously on a miss.
func (c *CachedResolver) GetName(ctx context.Context, code string, realtimeName string) string {
	key := redisKeyPrefix + code
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil && cached != "" {
		return cached
	}

	name := c.inner.GetName(ctx, code, realtimeName)
	go c.redis.Set(context.Background(), key, name, redisTTL)
	return name
}

// BatchGetNames resolves each code through GetName, sharing the Redis tier.
func (c *CachedResolver) BatchGetNames(ctx context.Context, codes []string, realtimeNames map[string]string) map[string]string {
	result := make(map[string]string, len(codes))
	for _, code := range codes {
		result[code] = c.GetName(ctx, code, realtimeNames[code])
	}
	return result
}
