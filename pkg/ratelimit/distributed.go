// 文件: pkg/ratelimit/distributed.go
// 分布式限速扩展：当多个调度进程共享同一数据源配额时，
// 用 Redis INCR+EXPIRE 代替进程内令牌桶。
//
// 设计沿用 alert 包的 Lua 脚本风格：原子地增加计数并在首次
// 设置时挂上过期时间，避免 INCR 和 EXPIRE 之间的竞态。

package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// luaIncrWithExpire 原子地自增一个计数器，并在它是本周期第一次自增时
// 设置过期时间。
//
// KEYS[1]: 计数器 key（形如 ratelimit:{source}:{minute}）
// ARGV[1]: 过期秒数
const luaIncrWithExpire = `
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return n
`

// DistributedLimiter 用 Redis 实现跨进程共享的每分钟配额。
// 调用方仍然应在本地叠加抖动 sleep（Limiter.waitJitter）；
// DistributedLimiter 只负责配额判定。
type DistributedLimiter struct {
	client    *redis.Client
	sourceID  string
	perMinute int
}

// NewDistributedLimiter 创建一个共享配额的限速器。
func NewDistributedLimiter(client *redis.Client, sourceID string, perMinute int) *DistributedLimiter {
	return &DistributedLimiter{client: client, sourceID: sourceID, perMinute: perMinute}
}

// Allow 返回当前分钟窗口是否仍有配额；若返回 false，调用方应退避后重试。
func (d *DistributedLimiter) Allow(ctx context.Context) (bool, error) {
	if d.perMinute <= 0 {
		return true, nil
	}
	bucket := time.Now().Unix() / 60
	key := "ratelimit:" + d.sourceID + ":" + strconv.FormatInt(bucket, 10)

	n, err := d.client.Eval(ctx, luaIncrWithExpire, []string{key}, 65).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(d.perMinute), nil
}
