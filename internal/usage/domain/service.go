package domain

import (
	"context"
	"errors"
	"time"
)

// UsageQuery asks for an account's charges over an inclusive date range.
// Category chooses the ledger route; IncludeAdjustments folds the
// account's manual adjustments into the total.
type UsageQuery struct {
	AccountID          string
	Category           string
	StartDate          time.Time
	EndDate            time.Time
	IncludeAdjustments bool
}

// TrendQuery asks for an account's day-by-day charge series. Adjustments
// never appear in trends; they have no meaningful daily attribution.
type TrendQuery struct {
	AccountID string
	Category  string
	StartDate time.Time
	EndDate   time.Time
}

type Service interface {
	ComputeUsage(context.Context, UsageQuery) (Breakdown, error)
	DailyTrend(context.Context, TrendQuery) ([]DailyUsage, error)
}

var (
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrInvalidID        = errors.New("invalid_id")
)
