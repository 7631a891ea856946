package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var errBadScriptReply = errors.New("unexpected token bucket reply")

// Refills by elapsed redis server time, takes one token when available
// and reports how long until the next token.
//
// KEYS[1] bucket hash
// ARGV    rate (tokens/s), burst, ttl (ms)
// returns {allowed 0|1, tokens as string, retry_after_ms}
const tokenBucketScript = `
local rate  = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl   = tonumber(ARGV[3])

local t   = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state  = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local ts     = tonumber(state[2]) or now

local elapsed = math.max(0, now - ts)
tokens = math.min(burst, tokens + elapsed * rate / 1000)

local allowed = 0
local retry = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), retry}
`

// RateLimitResult is one attempt's outcome. RetryAfter is zero when the
// attempt was allowed.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// TokenBucket is a redis-backed limiter shared by every API replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(tokenBucketScript)}
}

func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	if t == nil {
		return nil, errors.New("token bucket not configured")
	}
	if key == "" || rate <= 0 || burst <= 0 {
		return nil, fmt.Errorf("token bucket: invalid key=%q rate=%v burst=%d", key, rate, burst)
	}

	ttl := defaultBucketTTL(rate, burst)
	reply, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return nil, err
	}
	if len(reply) != 3 {
		return nil, errBadScriptReply
	}

	allowed, ok1 := toFloat(reply[0])
	tokens, ok2 := toFloat(reply[1])
	retryMs, ok3 := toFloat(reply[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, errBadScriptReply
	}

	return &RateLimitResult{
		Allowed:    allowed == 1,
		Limit:      burst,
		Remaining:  int(math.Floor(tokens)),
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

// defaultBucketTTL keeps an idle bucket around for twice its full refill
// time, after which a fresh bucket is identical anyway.
func defaultBucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(2*float64(burst)/rate))
	return time.Duration(seconds) * time.Second
}

// toFloat reads a redis script reply element, which arrives as int64 for
// Lua numbers and string for tostring() values.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
