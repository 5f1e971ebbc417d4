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

var (
	ErrLimiterNotConfigured = errors.New("rate_limiter_not_configured")
	ErrInvalidPolicy        = errors.New("invalid_rate_limit_policy")
)

// Refills a bucket from elapsed server time, then takes one token. The token
// count is returned as a string because redis truncates Lua numbers.
var takeTokenScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = (clock[1] * 1000) + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])

if tokens == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - ts)
  tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), now}
`)

// Policy is a refill rate in tokens per second and a bucket size.
type Policy struct {
	Rate  float64
	Burst int
}

func (p Policy) valid() bool {
	return p.Rate > 0 && p.Burst > 0
}

// ttl keeps an idle bucket around for twice the time it takes to refill.
func (p Policy) ttl() time.Duration {
	if !p.valid() {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(p.Burst)/p.Rate*2))
	return time.Duration(seconds) * time.Second
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type TokenBucket struct {
	client *redis.Client
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client}
}

// Take spends one token from the bucket at key.
func (t *TokenBucket) Take(ctx context.Context, key string, policy Policy) (*RateLimitResult, error) {
	if t == nil || t.client == nil {
		return nil, ErrLimiterNotConfigured
	}
	if key == "" || !policy.valid() {
		return nil, ErrInvalidPolicy
	}

	reply, err := takeTokenScript.Run(ctx, t.client,
		[]string{bucketPrefix + key},
		policy.Rate, policy.Burst, policy.ttl().Milliseconds(),
	).Slice()
	if err != nil {
		return nil, err
	}
	allowed, tokens, nowMs, err := parseTakeReply(reply)
	if err != nil {
		return nil, err
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = time.Duration((1 - tokens) / policy.Rate * float64(time.Second))
	}
	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      policy.Burst,
		Remaining:  int(tokens),
		ResetTime:  time.UnixMilli(nowMs).Add(retryAfter),
		RetryAfter: retryAfter,
	}, nil
}

func parseTakeReply(reply []interface{}) (bool, float64, int64, error) {
	if len(reply) != 3 {
		return false, 0, 0, fmt.Errorf("token bucket reply has %d fields", len(reply))
	}
	allowed, ok := reply[0].(int64)
	if !ok {
		return false, 0, 0, fmt.Errorf("token bucket allowed flag is %T", reply[0])
	}
	raw, ok := reply[1].(string)
	if !ok {
		return false, 0, 0, fmt.Errorf("token bucket tokens is %T", reply[1])
	}
	tokens, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("token bucket tokens: %w", err)
	}
	nowMs, ok := reply[2].(int64)
	if !ok {
		return false, 0, 0, fmt.Errorf("token bucket timestamp is %T", reply[2])
	}
	return allowed == 1, tokens, nowMs, nil
}
