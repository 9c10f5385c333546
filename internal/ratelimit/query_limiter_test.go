package ratelimit

import (
	"context"
	"testing"

	"github.com/summitgrid/corebank/internal/config"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter, err := NewLimiter(config.Config{})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if limiter != nil {
		t.Fatalf("disabled config must yield a nil limiter")
	}
	if limiter.Enabled() {
		t.Fatalf("nil limiter must report disabled")
	}

	res, err := limiter.AllowQuery(context.Background(), "12345", "usage")
	if err != nil {
		t.Fatalf("allow query: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("nil limiter must allow queries")
	}

	token, ok, err := limiter.TryLock(context.Background(), "push", 0)
	if err != nil || !ok {
		t.Fatalf("nil limiter must grant locks, got ok=%v err=%v", ok, err)
	}
	if err := limiter.Release(context.Background(), "push", token); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestLimiterConfigValidation(t *testing.T) {
	cfg := config.Config{}
	cfg.RateLimit.Enabled = true

	if _, err := NewLimiter(cfg); err == nil {
		t.Fatalf("expected error for missing redis addr")
	}

	cfg.RateLimit.RedisAddr = "localhost:6379"
	cfg.RateLimit.QueryRate = 0
	cfg.RateLimit.QueryBurst = 10
	if _, err := NewLimiter(cfg); err == nil {
		t.Fatalf("expected error for non-positive rate")
	}
}

func TestBucketTTLCoversRefill(t *testing.T) {
	if got := bucketTTL(25, 50); got.Seconds() != 4 {
		t.Fatalf("expected 4s ttl for 50 tokens at 25/s, got %v", got)
	}
	if got := bucketTTL(100, 10); got.Seconds() < 1 {
		t.Fatalf("ttl must never drop below a second, got %v", got)
	}
}
