// Package domain contains persistence models for the contact service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Contact is a vendor-scoped messaging recipient.
type Contact struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	VendorID    snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_contacts_vendor_phone,priority:1" json:"vendor_id"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	PhoneNumber string            `gorm:"column:phone_number;type:text;not null;uniqueIndex:ux_contacts_vendor_phone,priority:2" json:"phone_number"`
	Email       string            `gorm:"type:text" json:"email,omitempty"`
	Tags        pq.StringArray    `gorm:"type:text[]" json:"tags,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Contact) TableName() string { return "contacts" }
