package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
)

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[string, int]().(*ttlCache[string, int])
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("a", 1, time.Minute)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected fresh hit, got %v %v", v, ok)
	}

	current = current.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expiry after ttl")
	}
}

func TestTTLCacheDeleteAndZeroTTL(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("keep", "v", time.Hour)
	c.Set("skip", "v", 0)
	if _, ok := c.Get("skip"); ok {
		t.Fatalf("zero ttl must not store")
	}

	c.Delete("keep")
	if _, ok := c.Get("keep"); ok {
		t.Fatalf("expected delete to evict")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}

func TestAccountResolverCacheRoundTrip(t *testing.T) {
	c := NewAccountResolverCache()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	accountID := node.Generate()
	detail := &registrydomain.AccountDetail{
		ResourceCode:     "cluster-a",
		ResourceCategory: registrydomain.CategoryCompute,
	}

	if _, ok := c.GetAccountDetail(accountID); ok {
		t.Fatalf("expected miss before set")
	}
	c.SetAccountDetail(accountID, detail)
	got, ok := c.GetAccountDetail(accountID)
	if !ok || got.ResourceCode != "cluster-a" {
		t.Fatalf("expected cached detail, got %+v %v", got, ok)
	}

	c.InvalidateAccount(accountID)
	if _, ok := c.GetAccountDetail(accountID); ok {
		t.Fatalf("expected invalidation to evict")
	}

	// Nil details and zero IDs never enter the cache.
	c.SetAccountDetail(accountID, nil)
	if _, ok := c.GetAccountDetail(accountID); ok {
		t.Fatalf("nil detail must not be cached")
	}
	c.SetAccountDetail(0, detail)
	if _, ok := c.GetAccountDetail(0); ok {
		t.Fatalf("zero id must not be cached")
	}
}
