// Package domain defines the usage aggregation surface: period breakdowns
// across the routed charge ledgers and the zero-filled daily trend.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
)

// Breakdown is the result of one usage aggregation: per-ledger sums over
// an inclusive date range, their combined total, and (optionally) the
// account's adjustments for the same range.
type Breakdown struct {
	AccountID           snowflake.ID                    `json:"account_id"`
	Category            registrydomain.ResourceCategory `json:"category"`
	StartDate           time.Time                       `json:"start_date"`
	EndDate             time.Time                       `json:"end_date"`
	ChargesByCategory   map[ledgerdomain.Source]float64 `json:"charges_by_category"`
	TotalCharges        float64                         `json:"total_charges"`
	AdjustmentsTotal    float64                         `json:"adjustments_total"`
	IncludesAdjustments bool                            `json:"includes_adjustments"`
}

// DailyUsage is one day of a trend series. Every routed ledger appears as
// a key even on zero days, so chart surfaces get stable series.
type DailyUsage struct {
	Date              time.Time                       `json:"date"`
	ChargesByCategory map[ledgerdomain.Source]float64 `json:"charges_by_category"`
	TotalCharges      float64                         `json:"total_charges"`
}
