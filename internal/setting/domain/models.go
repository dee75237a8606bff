// Package domain contains persistence models for the setting service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Setting is a vendor-scoped configuration entry. Sensitive entries are
// masked on read and never returned through the public subset.
type Setting struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	VendorID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_settings_vendor_key,priority:1" json:"vendor_id"`
	Key         string       `gorm:"type:text;not null;uniqueIndex:ux_settings_vendor_key,priority:2" json:"key"`
	Value       string       `gorm:"type:text;not null" json:"value"`
	IsSensitive bool         `gorm:"column:is_sensitive" json:"is_sensitive"`
	IsPublic    bool         `gorm:"column:is_public" json:"is_public"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Setting) TableName() string { return "settings" }
