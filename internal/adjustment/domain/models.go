// Package domain contains manual adjustments: signed corrections posted
// against an account outside the ingestion pipelines (refunds for lost
// jobs, penalty charges, balance transfers).
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Adjustment is a signed amount applied on a calendar day. Negative
// amounts credit the account (reduce usage), positive amounts charge it.
// Totals always take adjustments as-is, never clamped.
type Adjustment struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	AccountID      snowflake.ID      `gorm:"not null;index" json:"account_id"`
	Amount         float64           `gorm:"not null" json:"amount"`
	AdjustmentDate time.Time         `gorm:"column:adjustment_date;not null;index" json:"adjustment_date"`
	Reason         string            `gorm:"type:text;not null" json:"reason"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Adjustment) TableName() string { return "adjustments" }
