package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/maidbook/internal/config"
)

const (
	ScopeLogin        = "login"
	ScopePromo        = "promo"
	ScopeGuestBooking = "guest_booking"
)

// PublicLimiter throttles unauthenticated endpoints per client IP.
type PublicLimiter struct {
	enabled bool
	bucket  *TokenBucket
	policy  Policy
}

func NewPublicLimiter(cfg config.Config, client *redis.Client) (*PublicLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled || client == nil {
		return &PublicLimiter{}, nil
	}
	policy := Policy{Rate: limitCfg.PublicRate, Burst: limitCfg.PublicBurst}
	if !policy.valid() {
		return nil, errors.New("public rate limit must be positive")
	}
	return &PublicLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		policy:  policy,
	}, nil
}

func (l *PublicLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow always admits the request when limiting is disabled.
func (l *PublicLimiter) Allow(ctx context.Context, scope, clientIP string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf("%s:%s", strings.TrimSpace(scope), strings.TrimSpace(clientIP))
	return l.bucket.Take(ctx, key, l.policy)
}
