// Package domain contains persistence models for the allocation registry:
// projects, chargeable resources, and the accounts that pair them.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ResourceCategory classifies how a resource accrues charges and which
// daily ledgers hold its activity.
type ResourceCategory string

const (
	CategoryCompute     ResourceCategory = "compute"
	CategoryInteractive ResourceCategory = "interactive"
	CategoryDisk        ResourceCategory = "disk"
	CategoryArchive     ResourceCategory = "archive"
)

// Categories returns the known categories in stable order.
func Categories() []ResourceCategory {
	return []ResourceCategory{CategoryCompute, CategoryInteractive, CategoryDisk, CategoryArchive}
}

// Known reports whether the category is part of the supported set.
func (c ResourceCategory) Known() bool {
	switch c {
	case CategoryCompute, CategoryInteractive, CategoryDisk, CategoryArchive:
		return true
	}
	return false
}

func (c ResourceCategory) String() string { return string(c) }

// ParseResourceCategory normalizes a caller-supplied category string.
func ParseResourceCategory(value string) (ResourceCategory, bool) {
	c := ResourceCategory(strings.ToLower(strings.TrimSpace(value)))
	return c, c.Known()
}

// Project is a funded research effort that owns accounts.
type Project struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code          string            `gorm:"type:text;not null;uniqueIndex:ux_projects_code" json:"code"`
	Title         string            `gorm:"type:text;not null" json:"title"`
	PrincipalName string            `gorm:"column:principal_name" json:"principal_name,omitempty"`
	Active        bool              `gorm:"not null;default:true" json:"active"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

// Resource is a chargeable system: a cluster, a login pool, a filesystem,
// or a tape archive. Category decides which ledgers record its usage.
type Resource struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code      string            `gorm:"type:text;not null;uniqueIndex:ux_resources_code" json:"code"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Category  ResourceCategory  `gorm:"type:text;not null;index" json:"category"`
	Unit      string            `gorm:"type:text;not null" json:"unit"`
	Active    bool              `gorm:"not null;default:true" json:"active"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Resource) TableName() string { return "resources" }

// Account pairs a project with a resource. All charges, adjustments and
// allocations hang off this pairing.
type Account struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code       string            `gorm:"type:text;not null;uniqueIndex:ux_accounts_code" json:"code"`
	ProjectID  snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_accounts_project_resource,priority:1" json:"project_id"`
	ResourceID snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_accounts_project_resource,priority:2" json:"resource_id"`
	Active     bool              `gorm:"not null;default:true" json:"active"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// AccountDetail joins an account with its project and resource so query
// surfaces can resolve the charge category in one lookup.
type AccountDetail struct {
	Account
	ProjectCode      string           `json:"project_code"`
	ProjectTitle     string           `json:"project_title"`
	ResourceCode     string           `json:"resource_code"`
	ResourceName     string           `json:"resource_name"`
	ResourceCategory ResourceCategory `json:"resource_category"`
	ResourceUnit     string           `json:"resource_unit"`
}
