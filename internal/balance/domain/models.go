// Package domain contains balance views: an allocation's grant measured
// against the usage its account accrued inside the allocation window.
// Balances are derived on demand and never persisted.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
)

// AllocationBalance is the position of a single allocation as of an
// explicit instant. Remaining goes negative on over-use and PercentUsed
// runs past 100; callers decide how to present that.
type AllocationBalance struct {
	AllocationID      snowflake.ID                    `json:"allocation_id"`
	AccountID         snowflake.ID                    `json:"account_id"`
	Allocated         float64                         `json:"allocated"`
	Used              float64                         `json:"used"`
	Remaining         float64                         `json:"remaining"`
	PercentUsed       float64                         `json:"percent_used"`
	ChargesByCategory map[ledgerdomain.Source]float64 `json:"charges_by_category"`
	AdjustmentsTotal  float64                         `json:"adjustments_total"`
	StartDate         time.Time                       `json:"start_date"`
	EndDate           *time.Time                      `json:"end_date,omitempty"`
	AsOf              time.Time                       `json:"as_of"`
}

// RollupBalance aggregates an allocation and every descendant reachable
// through parent links. Balances holds the per-allocation positions in
// traversal order, root first.
type RollupBalance struct {
	RootAllocationID snowflake.ID        `json:"root_allocation_id"`
	Allocated        float64             `json:"allocated"`
	Used             float64             `json:"used"`
	Remaining        float64             `json:"remaining"`
	PercentUsed      float64             `json:"percent_used"`
	AllocationCount  int                 `json:"allocation_count"`
	AsOf             time.Time           `json:"as_of"`
	Balances         []AllocationBalance `json:"balances"`
}
