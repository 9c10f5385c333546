// Package ratelimit throttles the query surfaces behind a shared Redis
// token bucket. With no Redis configured the limiter is absent and every
// request passes.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/summitgrid/corebank/internal/config"
)

const keyQuerySurface = "query:%s:%s"

// Limiter guards the usage, trend, and balance endpoints per account and
// surface, and lends out short locks for work that must run on exactly
// one replica.
type Limiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	queryRate  float64
	queryBurst int
}

// NewLimiter builds the limiter from config. Disabled config yields a nil
// limiter, which every method treats as "allow everything".
func NewLimiter(cfg config.Config) (*Limiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.QueryRate <= 0 || limitCfg.QueryBurst <= 0 {
		return nil, errors.New("query rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &Limiter{
		enabled:    true,
		bucket:     NewTokenBucket(client),
		locker:     NewLocker(client),
		queryRate:  limitCfg.QueryRate,
		queryBurst: limitCfg.QueryBurst,
	}, nil
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowQuery spends one token from the account's bucket for a surface
// ("usage", "trend", "balance"). Distinct surfaces refill independently.
func (l *Limiter) AllowQuery(ctx context.Context, accountID, surface string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyQuerySurface, strings.TrimSpace(accountID), strings.TrimSpace(surface))
	return l.bucket.Allow(ctx, key, l.queryRate, l.queryBurst)
}

// TryLock takes a named single-holder lock for ttl. Without Redis the
// lock is granted unconditionally with an empty token.
func (l *Limiter) TryLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, name, ttl)
}

// Release frees a lock taken with TryLock.
func (l *Limiter) Release(ctx context.Context, name, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, name, token)
}
