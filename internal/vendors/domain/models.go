// Package domain contains persistence models for the vendor service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
	StatusClosed    = "CLOSED"
)

// Vendor represents a tenant of the console.
type Vendor struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	Slug        string            `gorm:"type:text;not null;uniqueIndex:ux_vendors_slug" json:"slug"`
	Status      string            `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	PlanID      *snowflake.ID     `gorm:"index" json:"plan_id,omitempty"`
	OwnerUserID snowflake.ID      `gorm:"column:owner_user_id;not null;index" json:"owner_user_id"`
	IsDefault   bool              `gorm:"column:is_default" json:"is_default"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Vendor) TableName() string { return "vendors" }
