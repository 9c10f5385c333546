// Package domain contains threshold alerts: records of an allocation
// crossing a configured percent-used trip point. One alert exists per
// allocation and threshold, however many scans observe the crossing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AlertState grades a crossing by which trip point it passed.
type AlertState string

const (
	StateWarning  AlertState = "warning"
	StateCritical AlertState = "critical"
)

// AllocationAlert is one observed crossing. PercentUsed is the value at
// the scan that first saw the crossing, not a live reading.
type AllocationAlert struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	AllocationID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_alerts_allocation_threshold" json:"allocation_id"`
	AccountID        snowflake.ID `gorm:"not null;index" json:"account_id"`
	ThresholdPercent float64      `gorm:"not null;uniqueIndex:ux_alerts_allocation_threshold" json:"threshold_percent"`
	PercentUsed      float64      `gorm:"not null" json:"percent_used"`
	State            AlertState   `gorm:"type:text;not null" json:"state"`
	TriggeredAt      time.Time    `gorm:"not null" json:"triggered_at"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AllocationAlert) TableName() string { return "allocation_alerts" }
