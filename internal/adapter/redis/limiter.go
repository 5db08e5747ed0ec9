package redisadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token bucket refilled at ARGV[1] tokens per second up to ARGV[2]. The
// caller passes its clock in ARGV[3] as unix milliseconds. Returns 0 when
// a token was taken, otherwise the milliseconds until one is available.
const takeTokenLuaScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = burst
local ts = now
if state[1] then
    tokens = tonumber(state[1])
    ts = tonumber(state[2])
end

if now > ts then
    tokens = math.min(burst, tokens + (now - ts) * rate / 1000)
    ts = now
end

local wait = 0
if tokens >= 1 then
    tokens = tokens - 1
else
    wait = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(ts))
redis.call("PEXPIRE", key, math.ceil(burst * 1000 / rate) + 1000)
return wait
`

// Limiter is a token bucket kept in Redis and shared by every replica
// using the same key.
type Limiter struct {
	rdb    redis.UniversalClient
	key    string
	rps    float64
	burst  int
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a bucket under prefix refilled at rps up to burst.
func NewLimiter(rdb redis.UniversalClient, prefix string, rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rdb:    rdb,
		key:    prefix + "upstream:bucket",
		rps:    rps,
		burst:  burst,
		script: redis.NewScript(takeTokenLuaScript),
		now:    time.Now,
	}
}

// Wait blocks until a token is taken or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		wait, err := l.script.Run(ctx, l.rdb, []string{l.key}, l.rps, l.burst, l.now().UnixMilli()).Int64()
		if err != nil {
			return fmt.Errorf("take token: %w", err)
		}
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(time.Duration(wait) * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
