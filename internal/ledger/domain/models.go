// Package domain contains the pre-aggregated daily charge ledgers and the
// routing table that decides which ledgers serve a resource category. Rows
// are written by the site's ingestion pipelines; the engine only reads.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ComputeDailyCharge is one account-day of batch compute activity.
type ComputeDailyCharge struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_compute_daily_account_date,priority:1" json:"account_id"`
	ActivityDate time.Time    `gorm:"not null;uniqueIndex:ux_compute_daily_account_date,priority:2" json:"activity_date"`
	Charge       float64      `gorm:"not null" json:"charge"`
	CoreHours    float64      `gorm:"column:core_hours;not null" json:"core_hours"`
	JobCount     int64        `gorm:"column:job_count;not null" json:"job_count"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ComputeDailyCharge) TableName() string { return "compute_daily_charges" }

// InteractiveDailyCharge is one account-day of interactive session activity.
type InteractiveDailyCharge struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_interactive_daily_account_date,priority:1" json:"account_id"`
	ActivityDate time.Time    `gorm:"not null;uniqueIndex:ux_interactive_daily_account_date,priority:2" json:"activity_date"`
	Charge       float64      `gorm:"not null" json:"charge"`
	CoreHours    float64      `gorm:"column:core_hours;not null" json:"core_hours"`
	SessionCount int64        `gorm:"column:session_count;not null" json:"session_count"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InteractiveDailyCharge) TableName() string { return "interactive_daily_charges" }

// DiskDailyCharge is one account-day of working storage occupancy.
type DiskDailyCharge struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_disk_daily_account_date,priority:1" json:"account_id"`
	ActivityDate time.Time    `gorm:"not null;uniqueIndex:ux_disk_daily_account_date,priority:2" json:"activity_date"`
	Charge       float64      `gorm:"not null" json:"charge"`
	BytesStored  int64        `gorm:"column:bytes_stored;not null" json:"bytes_stored"`
	FileCount    int64        `gorm:"column:file_count;not null" json:"file_count"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DiskDailyCharge) TableName() string { return "disk_daily_charges" }

// ArchiveDailyCharge is one account-day of tape archive occupancy.
type ArchiveDailyCharge struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_archive_daily_account_date,priority:1" json:"account_id"`
	ActivityDate time.Time    `gorm:"not null;uniqueIndex:ux_archive_daily_account_date,priority:2" json:"activity_date"`
	Charge       float64      `gorm:"not null" json:"charge"`
	BytesStored  int64        `gorm:"column:bytes_stored;not null" json:"bytes_stored"`
	FileCount    int64        `gorm:"column:file_count;not null" json:"file_count"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ArchiveDailyCharge) TableName() string { return "archive_daily_charges" }

// DailyCharge is the ledger-independent view of one account-day row. The
// charge amount is uniform across ledgers; everything ledger-specific
// travels in the opaque metrics payload.
type DailyCharge struct {
	Source       Source            `json:"source"`
	AccountID    snowflake.ID      `json:"account_id"`
	ActivityDate time.Time         `json:"activity_date"`
	Charge       float64           `json:"charge"`
	Metrics      datatypes.JSONMap `json:"metrics,omitempty"`
}
