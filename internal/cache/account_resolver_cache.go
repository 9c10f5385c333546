// Package cache holds process-local caches for hot read paths. Only
// resolver lookups are cached; charge totals are always computed from
// the ledgers so balances never go stale.
package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
)

const defaultAccountDetailTTL = 5 * time.Minute

// AccountResolverCache stores account detail resolutions for the usage,
// trend, and balance query surfaces. Registry writes invalidate entries
// through the ResolverInvalidator binding.
type AccountResolverCache interface {
	GetAccountDetail(accountID snowflake.ID) (*registrydomain.AccountDetail, bool)
	SetAccountDetail(accountID snowflake.ID, detail *registrydomain.AccountDetail)
	InvalidateAccount(accountID snowflake.ID)
}

type accountResolverCache struct {
	details Cache[snowflake.ID, *registrydomain.AccountDetail]
	ttl     time.Duration
}

// NewAccountResolverCache returns an in-memory cache tuned for the query
// hot path.
func NewAccountResolverCache() AccountResolverCache {
	return &accountResolverCache{
		details: NewTTLCache[snowflake.ID, *registrydomain.AccountDetail](),
		ttl:     defaultAccountDetailTTL,
	}
}

func (c *accountResolverCache) GetAccountDetail(accountID snowflake.ID) (*registrydomain.AccountDetail, bool) {
	if accountID == 0 {
		return nil, false
	}
	return c.details.Get(accountID)
}

func (c *accountResolverCache) SetAccountDetail(accountID snowflake.ID, detail *registrydomain.AccountDetail) {
	if accountID == 0 || detail == nil {
		return
	}
	c.details.Set(accountID, detail, c.ttl)
}

func (c *accountResolverCache) InvalidateAccount(accountID snowflake.ID) {
	c.details.Delete(accountID)
}
