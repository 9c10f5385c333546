// Package domain contains persistence models for allocations: grants of a
// resource amount to an account over a validity window, optionally nested
// under a parent allocation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/dates"
	"gorm.io/datatypes"
)

// Allocation grants an account an amount of its resource's unit between
// StartDate and EndDate. A nil EndDate means open-ended. Sub-allocations
// reference their parent to form a hierarchy.
type Allocation struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID      `gorm:"not null;index" json:"account_id"`
	ParentID  *snowflake.ID     `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Amount    float64           `gorm:"not null" json:"amount"`
	StartDate time.Time         `gorm:"not null;index" json:"start_date"`
	EndDate   *time.Time        `gorm:"index" json:"end_date,omitempty"`
	Note      string            `gorm:"type:text" json:"note,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Allocation) TableName() string { return "allocations" }

// ActiveAt reports whether the validity window covers the instant's
// calendar day. Both window bounds are inclusive.
func (a Allocation) ActiveAt(at time.Time) bool {
	day := dates.Day(at)
	if day.Before(dates.Day(a.StartDate)) {
		return false
	}
	if a.EndDate != nil && day.After(dates.Day(*a.EndDate)) {
		return false
	}
	return true
}

// Window returns the allocation's usage window clamped for balance math:
// [StartDate, min(EndDate, asOf)]. It reports false when the window has
// not started yet as of the given instant.
func (a Allocation) Window(asOf time.Time) (dates.Range, bool) {
	end := dates.Day(asOf)
	if a.EndDate != nil && dates.Day(*a.EndDate).Before(end) {
		end = dates.Day(*a.EndDate)
	}
	r, ok := dates.Normalize(a.StartDate, end)
	if !ok {
		return dates.Range{}, false
	}
	return r, true
}
