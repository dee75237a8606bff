// Package domain contains persistence models for the template service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusDraft    = "DRAFT"
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Template is a vendor-scoped WhatsApp message template. RemoteID links the
// row to the provider-side template once it has been submitted.
type Template struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	VendorID  snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_templates_vendor_name_lang,priority:1" json:"vendor_id"`
	Name      string            `gorm:"type:text;not null;uniqueIndex:ux_templates_vendor_name_lang,priority:2" json:"name"`
	Language  string            `gorm:"type:text;not null;uniqueIndex:ux_templates_vendor_name_lang,priority:3" json:"language"`
	Category  string            `gorm:"type:text;not null" json:"category"`
	Body      string            `gorm:"type:text" json:"body,omitempty"`
	Status    string            `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	RemoteID  string            `gorm:"column:remote_id;type:text" json:"remote_id,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Template) TableName() string { return "templates" }
