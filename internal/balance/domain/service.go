package domain

import (
	"context"
	"time"
)

// BalanceQuery asks for one allocation's position. A zero AsOf means the
// service clock's current day.
type BalanceQuery struct {
	AllocationID string
	AsOf         time.Time
}

// RollupQuery asks for an allocation subtree's combined position.
type RollupQuery struct {
	AllocationID string
	AsOf         time.Time
}

type Service interface {
	ComputeBalance(context.Context, BalanceQuery) (AllocationBalance, error)
	ComputeRollup(context.Context, RollupQuery) (RollupBalance, error)
}
