package limiter

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient 介面定義
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

const tokenBucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens, now 為毫秒
	local elapsedSeconds = math.max(0, now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	redis.call('EXPIRE', key, ttl)
	return allowed
`

// RedisTokenBucket 多個節點共用同一個 bucket
type RedisTokenBucket struct {
	LimiterConfig
	client RedisClient
	now    func() time.Time
}

func NewRedisTokenBucket(client RedisClient, config *LimiterConfig) *RedisTokenBucket {
	return &RedisTokenBucket{
		LimiterConfig: withDefaults(config),
		client:        client,
		now:           time.Now,
	}
}

// ttl 至少要涵蓋補滿 bucket 的時間
func (r *RedisTokenBucket) ttlSeconds() int {
	refill := int(math.Ceil(float64(r.Capacity) / float64(r.RatePS)))
	return max(60, refill+1)
}

func (r *RedisTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Eval(
		ctx,
		tokenBucketScript,
		[]string{r.Prefix + ":" + key},
		r.Capacity,
		r.RatePS,
		r.now().UnixMilli(),
		r.ttlSeconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

var _ Limiter = (*RedisTokenBucket)(nil)
