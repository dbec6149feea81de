package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Limiter backed by a shared Redis sorted set per key. It
// implements the same sliding-window contract as SlidingWindow and is the
// drop-in replacement when the service runs more than one instance.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	script *redis.Script
}

// The script prunes aged members, rejects with the milliseconds until the
// oldest counted member leaves the window, or records the request and expires
// the key with the window so idle keys evict themselves.
var slidingWindowScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local window_ms = tonumber(ARGV[2])
    local limit = tonumber(ARGV[3])
    local member = ARGV[4]

    redis.call('ZREMRANGEBYSCORE', key, 0, now_ms - window_ms)

    local count = redis.call('ZCARD', key)
    if count >= limit then
        local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
        local retry_ms = window_ms
        if oldest[2] ~= nil then
            retry_ms = tonumber(oldest[2]) + window_ms - now_ms
        end
        if retry_ms < 0 then retry_ms = 0 end
        return { 0, 0, retry_ms }
    end

    redis.call('ZADD', key, now_ms, member)
    redis.call('PEXPIRE', key, window_ms)
    return { 1, limit - count - 1, 0 }
`)

// NewRedisLimiter creates a limiter on the given client. Keys are namespaced
// with the prefix.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{client: client, prefix: prefix, script: slidingWindowScript}
}

func (r *RedisLimiter) Check(ctx context.Context, key string, rule Rule) (Result, error) {
	now := time.Now()
	args := []interface{}{
		now.UnixMilli(),
		rule.Window.Milliseconds(),
		rule.Limit,
		uuid.NewString(),
	}

	vals, err := r.script.Run(ctx, r.client, []string{r.prefix + ":" + key}, args...).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis check failed: %w", err)
	}

	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script result %#v", vals)
	}

	allowed := asInt64(arr[0]) == 1
	remaining := int(asInt64(arr[1]))
	retryMs := asInt64(arr[2])

	res := Result{Allowed: allowed, Remaining: remaining}
	if !allowed {
		retry := int(math.Ceil(float64(retryMs) / 1000.0))
		if retry < 1 {
			retry = 1
		}
		res.RetryAfterSeconds = retry
	}
	return res, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		var n int64
		_, _ = fmt.Sscan(t, &n)
		return n
	}
	return 0
}
