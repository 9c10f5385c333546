// Package guard holds the pure decision rules the scheduler applies to
// scanned allocations, kept free of storage so they can be tested as
// plain functions.
package guard

import (
	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
)

// Crossing is one trip point an allocation's percent-used has reached.
type Crossing struct {
	ThresholdPercent float64
	State            alertdomain.AlertState
}

// Crossings reports which configured trip points percentUsed has reached,
// lowest threshold first. A non-positive threshold disables its tier.
// When the two tiers share a value only the critical crossing is
// reported, so a misconfigured site does not double-alert.
func Crossings(percentUsed, warnPercent, criticalPercent float64) []Crossing {
	var crossings []Crossing
	if warnPercent > 0 && percentUsed >= warnPercent && warnPercent != criticalPercent {
		crossings = append(crossings, Crossing{
			ThresholdPercent: warnPercent,
			State:            alertdomain.StateWarning,
		})
	}
	if criticalPercent > 0 && percentUsed >= criticalPercent {
		crossings = append(crossings, Crossing{
			ThresholdPercent: criticalPercent,
			State:            alertdomain.StateCritical,
		})
	}
	return crossings
}
