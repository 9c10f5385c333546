package server

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/summitgrid/corebank/internal/observability/logger"
	"github.com/summitgrid/corebank/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	surfaceUsage   = "usage"
	surfaceTrend   = "trend"
	surfaceBalance = "balance"
)

// QueryRateLimit throttles one query surface per account. Buckets are
// keyed per (account, surface) so a trend-hammering dashboard cannot
// starve balance checks on the same account.
func (s *Server) QueryRateLimit(surface string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.queryLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		accountKey := rateLimitAccountKey(c)

		result, err := s.queryLimiter.AllowQuery(ctx, accountKey, surface)
		if err != nil {
			logger.FromContext(ctx).Warn("query rate limit check failed",
				zap.String("surface", surface),
				zap.Error(err),
			)
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		if !result.Allowed {
			s.denyQuery(c, endpoint, surface, result)
			return
		}

		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		}
		c.Next()
	}
}

func (s *Server) denyQuery(c *gin.Context, endpoint, surface string, result *ratelimit.RateLimitResult) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("query rate limit exceeded",
		zap.String("surface", surface),
		zap.String("endpoint", endpoint),
	)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, surface)
	}

	c.Header("Retry-After", retryAfterSeconds(result.RetryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	AbortWithError(c, ErrRateLimited)
}

// retryAfterSeconds rounds up; telling a client to retry in 0 seconds
// just invites another denial.
func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// rateLimitAccountKey pulls the account identity from whichever path
// shape the route uses. Balance routes carry the allocation id instead;
// throttling per allocation is as fair as throttling per account there.
func rateLimitAccountKey(c *gin.Context) string {
	if v := strings.TrimSpace(c.Param("account_id")); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Param("id")); v != "" {
		return v
	}
	return "unknown"
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
